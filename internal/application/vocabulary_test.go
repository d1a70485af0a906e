package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"autolabel/internal/domain/entity"
)

func recordWith(labels ...string) *entity.AnnotationRecord {
	r := entity.NewAnnotationRecord("x.jpg", 10, 10)
	for _, label := range labels {
		r.Append(rect(label, 0, 0, 1, 1))
	}
	return r
}

func TestVocabulary_Fold(t *testing.T) {
	acc := FoldRecords(NewVocabulary(), []*entity.AnnotationRecord{
		recordWith("cat", "dog"),
		recordWith(),
		recordWith("bird", "dog", "dog"),
	})

	require.Equal(t, []string{"cat", "dog", "bird"}, acc.Labels())
	require.Equal(t, []string{"dog", "cat", "bird"}, acc.ByFrequency())
	require.Equal(t, 3, acc.Count("dog"))
	require.Equal(t, 0, acc.Count("zebra"))
	require.Equal(t, 3, acc.Files)
	require.Equal(t, 1, acc.EmptyFiles)
}

func TestVocabulary_AddDoesNotMutate(t *testing.T) {
	base := NewVocabulary("cat")
	next := base.Add(recordWith("cat", "dog"))

	require.Equal(t, []string{"cat"}, base.Labels())
	require.Equal(t, 0, base.Count("cat"))
	require.Equal(t, 0, base.Files)

	require.Equal(t, []string{"cat", "dog"}, next.Labels())
	require.Equal(t, 1, next.Count("cat"))
}

func TestMergeLabels(t *testing.T) {
	found := FoldRecords(NewVocabulary(), []*entity.AnnotationRecord{recordWith("zebra", "cat", "ant")})

	require.Equal(t, []string{"cat", "dog", "zebra", "ant"}, MergeLabels([]string{"cat", "dog"}, found))
	require.Equal(t, []string{"zebra", "cat", "ant"}, MergeLabels(nil, found))
}
