package tmpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "hello {{ .Name }}",
			data: map[string]string{"Name": "world"},
			want: "hello world",
		},
		{
			name: "struct data",
			tmpl: "{{ .Pending }} pending, {{ .Completed }} done",
			data: struct {
				Pending   int
				Completed int
			}{Pending: 3, Completed: 1},
			want: "3 pending, 1 done",
		},
		{
			name: "no variables",
			tmpl: "static string",
			data: nil,
			want: "static string",
		},
		{
			name:    "missing key errors",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{"Name": "test"},
			wantErr: true,
		},
		{
			name:    "invalid template syntax",
			tmpl:    "{{ .Name }",
			data:    map[string]string{"Name": "test"},
			wantErr: true,
		},
		{
			name: "title function",
			tmpl: "{{ title .Channel }}",
			data: map[string]string{"Channel": "email"},
			want: "Email",
		},
		{
			name: "join and upper",
			tmpl: `{{ join .Items ", " | upper }}`,
			data: map[string][]string{"Items": {"a", "b"}},
			want: "A, B",
		},
		{
			name: "date function",
			tmpl: `{{ date "January 02, 2006" .Now }}`,
			data: map[string]time.Time{"Now": time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)},
			want: "March 07, 2026",
		},
		{
			name: "truncate long",
			tmpl: "{{ truncate 8 .S }}",
			data: map[string]string{"S": "abcdefghijkl"},
			want: "abcde...",
		},
		{
			name: "truncate short",
			tmpl: "{{ truncate 8 .S }}",
			data: map[string]string{"S": "abc"},
			want: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("{{ .Anything }} {{ title .X }}"))

	err := Validate("{{ .Name ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")

	assert.Error(t, Validate("{{ unknownFunc .X }}"))
}
