package dataset

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "graph_of_thoughts/training_examples.jsonl",
		`{"question": "How do tariffs affect supply chains?", "answer": "many ways"}`+"\n\n"+
			`{"question": "Map the causes of the 2008 crisis."}`+"\n")
	writeFile(t, root, "direct/training_examples.jsonl", `{"question": "Capital of France?", "answer": "Paris"}`+"\n")
	writeFile(t, root, "direct/extra.jsonl", `{"id": "custom", "question": "2+2?"}`+"\n")
	writeFile(t, root, "direct/notes.txt", "ignored")
	writeFile(t, root, "unrelated/training_examples.jsonl", `{"question": "ignored"}`+"\n")

	examples, err := LoadDir(root)
	require.NoError(t, err)

	want := []models.LabeledExample{
		{ID: "direct-001", Question: "Capital of France?", ExpectedMode: models.ModeDirect, Answer: "Paris"},
		{ID: "custom", Question: "2+2?", ExpectedMode: models.ModeDirect},
		{ID: "graph_of_thoughts-001", Question: "How do tariffs affect supply chains?", ExpectedMode: models.ModeGOT, Answer: "many ways"},
		{ID: "graph_of_thoughts-003", Question: "Map the causes of the 2008 crisis.", ExpectedMode: models.ModeGOT},
	}
	if diff := cmp.Diff(want, examples); diff != "" {
		t.Errorf("LoadDir() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir_DirectoryLabelWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "combined/training_examples.jsonl", `{"question": "q", "expected_mode": "DIRECT"}`+"\n")

	examples, err := LoadDir(root)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, models.ModeCombined, examples[0].ExpectedMode)
}

func TestLoadDir_Errors(t *testing.T) {
	t.Run("empty root", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no labeled examples")
	})

	t.Run("bad line", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "chain_of_thought/training_examples.jsonl", `{"question": "ok"}`+"\n"+`{not json`+"\n")
		_, err := LoadDir(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("missing question", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "chain_of_thought/training_examples.jsonl", `{"answer": "orphan"}`+"\n")
		_, err := LoadDir(root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing question")
	})
}

func TestLoad_DispatchesOnPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "parts/atom_of_thoughts/training_examples.jsonl", `{"question": "Why does ice float?"}`+"\n")
	flat := writeFile(t, root, "flat.jsonl", `{"question": "Why does ice float?", "expected_mode": "atom_of_thoughts"}`+"\n")
	csvPath := writeFile(t, root, "flat.csv", "question,expected_mode\nWhy does ice float?,AOT\n")

	for _, path := range []string{filepath.Join(root, "parts"), flat, csvPath} {
		examples, err := Load(path)
		require.NoError(t, err, path)
		require.Len(t, examples, 1, path)
		assert.Equal(t, models.ModeAOT, examples[0].ExpectedMode, path)
	}

	_, err := Load(writeFile(t, root, "data.txt", "nope"))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = Load(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestLoadJSONL_FlatNeedsMode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "flat.jsonl", `{"question": "q"}`+"\n")
	_, err := LoadJSONL(path, models.ModeUnknown)
	assert.ErrorContains(t, err, "not a routable mode")
}

func TestWritePartitioned_RoundTrip(t *testing.T) {
	root := t.TempDir()
	examples := []models.LabeledExample{
		{ID: "a", Question: "Capital of France?", ExpectedMode: models.ModeDirect, Answer: "Paris"},
		{ID: "b", Question: "Design a city.", ExpectedMode: models.ModeCombined},
	}
	require.NoError(t, WritePartitioned(root, examples))

	loaded, err := LoadDir(root)
	require.NoError(t, err)
	assert.Equal(t, examples, loaded)
	assert.Equal(t, map[models.Mode]int{models.ModeDirect: 1, models.ModeCombined: 1}, Counts(loaded))

	err = WritePartitioned(root, []models.LabeledExample{{Question: "q", ExpectedMode: models.ModeMultiStrategy}})
	var invalid *models.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}
