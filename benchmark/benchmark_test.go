package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	textnormalization "github.com/baditaflorin/go_text_normalization"
)

// generateText creates a text of about size bytes by repeating a sample
// that mixes plain words with semiotic tokens.
func generateText(sample string, size int) string {
	if size <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(size + len(sample))
	for sb.Len() < size {
		sb.WriteString(sample)
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

const (
	hindiSample   = "कल 12:30 बजे मैंने ₹100 दिए और 15/08/1947 को 5 kg चावल 3.14 रुपये किलो में 10-20 लोगों के लिए लिया"
	englishSample = "On 12/5 Dr. Smith paid $1.50 for 5 kg of rice and called (555) 123-4567 at 12:30 for the 21st time"
)

func mustNormalizer(b *testing.B, lang string, casing textnormalization.Casing) *textnormalization.Normalizer {
	b.Helper()
	n, err := textnormalization.New(lang, casing, textnormalization.WithLogger(textnormalization.NopLogger()))
	if err != nil {
		b.Fatalf("New(%s): %v", lang, err)
	}
	return n
}

// BenchmarkNew measures grammar loading and compilation.
func BenchmarkNew(b *testing.B) {
	for _, lang := range []string{"hi", "en"} {
		b.Run(lang, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = mustNormalizer(b, lang, textnormalization.Cased)
			}
		})
	}
}

// BenchmarkNormalize compares normalization across languages and input sizes.
func BenchmarkNormalize(b *testing.B) {
	benchmarks := []struct {
		name   string
		lang   string
		casing textnormalization.Casing
		sample string
		size   int
	}{
		{"Hindi-Small", "hi", textnormalization.Cased, hindiSample, 100},
		{"Hindi-Medium", "hi", textnormalization.Cased, hindiSample, 1000},
		{"Hindi-Large", "hi", textnormalization.Cased, hindiSample, 10000},
		{"English-Small", "en", textnormalization.Cased, englishSample, 100},
		{"English-Medium", "en", textnormalization.Cased, englishSample, 1000},
		{"English-LowerCased", "en", textnormalization.LowerCased, englishSample, 1000},
		{"Plain-Medium", "hi", textnormalization.Cased, "नमस्ते दुनिया यह एक साधारण वाक्य है", 1000},
	}

	for _, bm := range benchmarks {
		n := mustNormalizer(b, bm.lang, bm.casing)
		input := generateText(bm.sample, bm.size)

		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				_ = n.Normalize(input)
			}
		})
	}
}

// BenchmarkClassify measures classification without verbalization.
func BenchmarkClassify(b *testing.B) {
	n := mustNormalizer(b, "hi", textnormalization.Cased)
	input := generateText(hindiSample, 1000)

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	for i := 0; i < b.N; i++ {
		if _, err := n.Classify(input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkClassifyDigitRun measures one unbroken digit run, which every
// numeric class scans to its end.
func BenchmarkClassifyDigitRun(b *testing.B) {
	n := mustNormalizer(b, "hi", textnormalization.Cased)
	for _, size := range []int{1000, 4000, 8000} {
		input := strings.Repeat("7", size)
		b.Run(fmt.Sprintf("Digits-%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(input)))
			for i := 0; i < b.N; i++ {
				if _, err := n.Classify(input); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkNormalizeList compares batch sizes through the worker pool.
func BenchmarkNormalizeList(b *testing.B) {
	n := mustNormalizer(b, "hi", textnormalization.Cased)
	ctx := context.Background()

	for _, count := range []int{1, 16, 256} {
		texts := make([]string, count)
		for i := range texts {
			texts[i] = hindiSample
		}
		b.Run(fmt.Sprintf("Texts-%d", count), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := n.NormalizeList(ctx, texts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkNormalizeParallel exercises one normalizer from many goroutines.
func BenchmarkNormalizeParallel(b *testing.B) {
	n := mustNormalizer(b, "hi", textnormalization.Cased)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = n.Normalize(hindiSample)
		}
	})
}
