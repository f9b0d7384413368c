package tokenizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"punctuation and case", "Fish, fish! FISH?", []string{"fish", "fish", "fish"}},
		{"stop words dropped", "the fish and the bike", []string{"fish", "bike"}},
		{"inner punctuation kept", "don't e-mail (me)", []string{"don't", "e-mail", "me"}},
		{"pure punctuation dropped", "-- ... !!", []string{}},
		{"digits kept", "route 66.", []string{"route", "66"}},
		{"no stemming", "running runs", []string{"running", "runs"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeTerm(t *testing.T) {
	if term, ok := NormalizeTerm("\"Bike\""); !ok || term != "bike" {
		t.Errorf("NormalizeTerm = %q, %v", term, ok)
	}
	if _, ok := NormalizeTerm("The"); ok {
		t.Error("expected stop word to be rejected")
	}
	if _, ok := NormalizeTerm("?!"); ok {
		t.Error("expected punctuation to be rejected")
	}
}

var benchText = strings.Repeat(`Authority ranking multiplies how often a term appears on a page
	by the number of distinct pages linking to it. "Fish", fish! and FISH all
	count as the same term; punctuation at either end is dropped. `, 20)

func BenchmarkTokenize(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	for i := 0; i < b.N; i++ {
		_ = Tokenize(benchText)
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchText)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Tokenize(benchText)
		}
	})
}
