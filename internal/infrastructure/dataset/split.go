package dataset

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultTestRatio доля пар, уходящих в тестовую выборку.
const DefaultTestRatio = 0.2

// SplitResult итог разбиения.
type SplitResult struct {
	Train   int
	Test    int
	Skipped int
}

// Split копирует пары <stem>.json + <stem>.jpg из dir в <dir>-train и <dir>-test.
// Разметка без jpg пропускается.
func Split(dir string, testRatio float64, rng *rand.Rand) (SplitResult, error) {
	var result SplitResult

	dir = filepath.Clean(dir)
	trainDir := dir + "-train"
	testDir := dir + "-test"
	for _, d := range []string{trainDir, testDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return result, fmt.Errorf("create split dir: %w", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read dataset dir: %w", err)
	}

	var stems []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			stems = append(stems, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(stems)

	for _, stem := range stems {
		dst := trainDir
		if rng.Float64() < testRatio {
			dst = testDir
		}

		jpg := filepath.Join(dir, stem+".jpg")
		if _, err := os.Stat(jpg); err != nil {
			result.Skipped++
			continue
		}

		for _, name := range []string{stem + ".json", stem + ".jpg"} {
			if err := copyFile(filepath.Join(dir, name), filepath.Join(dst, name)); err != nil {
				return result, err
			}
		}

		if dst == testDir {
			result.Test++
		} else {
			result.Train++
		}
	}

	return result, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
