package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		want   string
		wantOK bool
	}{
		{"python def", "def greet(name):\n    return name", "PYTHON", true},
		{"python import", "import os\nprint(os.getcwd())", "PYTHON", true},
		{"typescript interface", "interface User { id: number }", "TYPESCRIPT", true},
		{"typescript annotation", "function f(name: string) {}", "TYPESCRIPT", true},
		{"react div", "return <div>hello world</div>;", "REACT", true},
		{"react className", "const el = { className: 'x' };", "REACT", true},
		{"python beats react", "def render():\n    return '<div>'", "PYTHON", true},
		{"typescript beats react", "interface P {}; <div className='a' />", "TYPESCRIPT", true},
		{"no rule matches", "SELECT * FROM users WHERE id = 1", "", false},
		{"exactly twenty chars", "def abcdefghijklmnop", "", false},
		{"twenty one chars", "def abcdefghijklmnopq", "PYTHON", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectLanguage(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
