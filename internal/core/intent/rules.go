package intent

// Payload describes what a rule extracts from its first capture group.
type Payload int

const (
	// PayloadNone extracts nothing.
	PayloadNone Payload = iota
	// PayloadID extracts a numeric todo identifier.
	PayloadID
	// PayloadText extracts a free-text description.
	PayloadText
)

// Rule maps a pattern to an action. Rules are evaluated in order and the first
// match wins.
type Rule struct {
	Action  Action
	Pattern string
	Payload Payload
}

// DefaultRules is the fixed precedence table: complete, list, help, add.
// Patterns are matched case-insensitively against normalized text. Complete
// rules match anywhere in the text but require a number; a keyword without
// one falls through to the add rules.
var DefaultRules = []Rule{
	{Action: ActionComplete, Pattern: `\b(?:mark\s+done|complete|done|finished)[:\s]+#?(\d+)\b`, Payload: PayloadID},

	{Action: ActionList, Pattern: `^(?:list|show|pending)(?:\s+my)?(?:\s+todos?)?$`},
	{Action: ActionList, Pattern: `^my\s+todos?$`},
	{Action: ActionList, Pattern: `^what\s+are\s+my\s+todos?\??$`},

	{Action: ActionHelp, Pattern: `^(?:help|commands|how\s+to\s+use|what\s+can\s+you\s+do)\b`},

	{Action: ActionAdd, Pattern: `^(?:add|new|create)\s+todo[:\s]+(.+)$`, Payload: PayloadText},
	{Action: ActionAdd, Pattern: `^(?:todo|task)[:\s]+(.+)$`, Payload: PayloadText},
}
