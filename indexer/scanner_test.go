package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/fwdindex/forward"
)

func TestWordScanner_Visit(t *testing.T) {
	src := []byte("package main\n" +
		"// Greet says hello\n" +
		"func Greet() string { return \"hello \\\"world\\\"\" } /* done */\n" +
		"var x2 = `raw\nmulti` # tail\n" +
		"var zażółć = 'c'\n")

	type occurrence struct {
		word string
		mask forward.OccurrenceMask
	}
	var got []occurrence
	(&WordScanner{}).Visit(src, func(word string, mask forward.OccurrenceMask) {
		got = append(got, occurrence{word, mask})
	})
	want := []occurrence{
		{"package", forward.InCode}, {"main", forward.InCode},
		{"Greet", forward.InComments}, {"says", forward.InComments}, {"hello", forward.InComments},
		{"func", forward.InCode}, {"Greet", forward.InCode}, {"string", forward.InCode}, {"return", forward.InCode},
		{"hello", forward.InStrings}, {"world", forward.InStrings},
		{"done", forward.InComments},
		{"var", forward.InCode}, {"x2", forward.InCode}, {"raw", forward.InStrings}, {"multi", forward.InStrings},
		{"tail", forward.InComments},
		{"var", forward.InCode}, {"zażółć", forward.InCode}, {"c", forward.InStrings},
	}
	assert.Equal(t, want, got)
}

func TestWordScanner_Scan(t *testing.T) {
	src := []byte("Hello hello // HELLO\nprint(\"Hello\")")
	insensitive := (&WordScanner{}).Scan(src)
	assert.Equal(t, forward.InCode|forward.InComments|forward.InStrings, insensitive[forward.NewEntry("hello", false)])
	assert.Len(t, insensitive, 2)

	sensitive := (&WordScanner{CaseSensitive: true}).Scan(src)
	assert.Equal(t, forward.InCode|forward.InStrings, sensitive[forward.NewEntry("Hello", true)])
	assert.Equal(t, forward.InCode, sensitive[forward.NewEntry("hello", true)])
	assert.Equal(t, forward.InComments, sensitive[forward.NewEntry("HELLO", true)])
	assert.Len(t, sensitive, 4)
}
