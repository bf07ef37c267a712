package frvm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	frvm "github.com/vdd9/frvm"
	"github.com/vdd9/frvm/config"
	"github.com/vdd9/frvm/model"
	"github.com/vdd9/frvm/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Categories = []config.Category{
		{Key: "🥗", Label: "salad"},
		{Key: "🍔", Label: "burger"},
		{Key: "🔥", Label: "spicy"},
	}
	return cfg
}

func openLib(t *testing.T, tree *testutil.Tree) *frvm.Library {
	t.Helper()
	lib, err := frvm.New(tree.Root).
		Config(testConfig()).
		Debounce(10 * time.Millisecond).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestOpen_ScanAndEvaluate(t *testing.T) {
	tree := testutil.NewTree(t)
	a := tree.AddVideo(model.PartitionLandscape, "a.mp4", "+🥗-🍔")
	b := tree.AddVideo(model.PartitionLandscape, "b.mp4", "-🥗")
	c := tree.AddVideo(model.PartitionLandscape, "c.mp4", "")

	lib := openLib(t, tree)

	res, err := lib.Evaluate(model.PartitionLandscape, "🥗.!🍔")
	require.NoError(t, err)
	assert.Equal(t, []model.EntityID{a}, res.IDs)

	res, err = lib.Evaluate(model.PartitionLandscape, "?🥗")
	require.NoError(t, err)
	assert.Equal(t, []model.EntityID{c}, res.IDs)

	res, err = lib.Evaluate(model.PartitionLandscape, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	got, err := lib.GetCategories(a)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.State{"🥗": model.Yes, "🍔": model.No}, got)

	_ = b
}

func TestEvaluate_Errors(t *testing.T) {
	tree := testutil.NewTree(t)
	lib := openLib(t, tree)

	_, err := lib.Evaluate(model.PartitionSquare, "🎸")
	assert.ErrorIs(t, err, frvm.ErrUnknownCategory)

	_, err = lib.Evaluate(model.PartitionSquare, "🥗+")
	assert.ErrorIs(t, err, frvm.ErrSyntax)

	_, err = lib.Evaluate("sideways", "🥗")
	var ip *frvm.ErrInvalidPartition
	assert.ErrorAs(t, err, &ip)
}

func TestSetCategory_PersistsCoalesced(t *testing.T) {
	tree := testutil.NewTree(t)
	id := tree.AddVideo(model.PartitionSquare, "v.mp4", "")
	lib := openLib(t, tree)

	prev, err := lib.SetCategory(id, "🥗", model.Yes)
	require.NoError(t, err)
	assert.Equal(t, model.Unset, prev)

	// A burst of edits to the same entity coalesces into one final write.
	_, err = lib.SetCategory(id, "🍔", model.No)
	require.NoError(t, err)
	_, err = lib.SetCategory(id, "🍔", model.Unset)
	require.NoError(t, err)

	require.NoError(t, lib.Flush(context.Background()))
	assert.Equal(t, "+🥗", tree.ReadSidecar(id))
	assert.Equal(t, 0, lib.PendingWrites())
}

func TestCountByPartition(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.AddVideo(model.PartitionSquare, "s.mp4", "+🥗")
	tree.AddVideo(model.PartitionLandscape, "l1.mp4", "+🥗")
	tree.AddVideo(model.PartitionLandscape, "l2.mp4", "-🥗")

	lib := openLib(t, tree)

	counts, err := lib.CountByPartition("🥗")
	require.NoError(t, err)
	assert.Equal(t, map[model.Partition]int{
		model.PartitionSquare:    1,
		model.PartitionLandscape: 1,
		model.PartitionPortrait:  0,
	}, counts)
}

func TestComposeFilter(t *testing.T) {
	tree := testutil.NewTree(t)
	lib := openLib(t, tree)

	composed, err := lib.ComposeFilter("🥗", "!🍔")
	require.NoError(t, err)
	assert.Equal(t, "(🥗).(!🍔)", composed)

	composed, err = lib.ComposeFilter("", "!🍔")
	require.NoError(t, err)
	assert.Equal(t, "!🍔", composed)

	composed, err = lib.ComposeFilter("🥗", "")
	require.NoError(t, err)
	assert.Equal(t, "🥗", composed)

	// The composed filter must itself parse.
	_, err = lib.Evaluate(model.PartitionSquare, composed)
	require.NoError(t, err)

	_, err = lib.ComposeFilter("🥗", "🎸")
	assert.ErrorIs(t, err, frvm.ErrUnknownCategory)
}

func TestRescan_AddsNewKeepsEdits(t *testing.T) {
	tree := testutil.NewTree(t)
	existing := tree.AddVideo(model.PartitionPortrait, "old.mp4", "")
	lib := openLib(t, tree)

	_, err := lib.SetCategory(existing, "🔥", model.Yes)
	require.NoError(t, err)

	added := tree.AddVideo(model.PartitionPortrait, "new.mp4", "+🍔")
	n, err := lib.Rescan()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// The unsaved in-memory edit survives the rescan.
	v, err := lib.GetCategory(existing, "🔥")
	require.NoError(t, err)
	assert.Equal(t, model.Yes, v)

	v, err = lib.GetCategory(added, "🍔")
	require.NoError(t, err)
	assert.Equal(t, model.Yes, v)
}

func TestSnapshot_SaveAndLoad(t *testing.T) {
	tree := testutil.NewTree(t)
	id := tree.AddVideo(model.PartitionLandscape, "v.mp4", "")

	lib, err := frvm.New(tree.Root).
		Config(testConfig()).
		SnapshotPath("state.snap").
		Debounce(10 * time.Millisecond).
		Build()
	require.NoError(t, err)
	defer lib.Close()

	_, err = lib.SetCategory(id, "🥗", model.Yes)
	require.NoError(t, err)
	require.NoError(t, lib.SaveSnapshot())
	require.NoError(t, lib.Close())

	reopened, err := frvm.New(tree.Root).
		Config(testConfig()).
		SnapshotPath("state.snap").
		Build()
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadSnapshot()
	require.NoError(t, err)
	require.True(t, loaded)

	v, err := reopened.GetCategory(id, "🥗")
	require.NoError(t, err)
	assert.Equal(t, model.Yes, v)
}

func TestLoadSnapshot_MissingFileIsNotAnError(t *testing.T) {
	tree := testutil.NewTree(t)
	lib, err := frvm.New(tree.Root).
		Config(testConfig()).
		SnapshotPath("state.snap").
		Build()
	require.NoError(t, err)
	defer lib.Close()

	loaded, err := lib.LoadSnapshot()
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestClose_Idempotent(t *testing.T) {
	tree := testutil.NewTree(t)
	lib := openLib(t, tree)

	require.NoError(t, lib.Close())
	require.NoError(t, lib.Close())

	_, err := lib.Evaluate(model.PartitionSquare, "")
	assert.ErrorIs(t, err, frvm.ErrClosed)
	_, err = lib.Rescan()
	assert.ErrorIs(t, err, frvm.ErrClosed)
}

func TestMetricsCollector(t *testing.T) {
	tree := testutil.NewTree(t)
	tree.AddVideo(model.PartitionSquare, "v.mp4", "+🥗")

	mc := &frvm.BasicMetricsCollector{}
	lib, err := frvm.New(tree.Root).
		Config(testConfig()).
		Metrics(mc).
		Build()
	require.NoError(t, err)
	defer lib.Close()

	_, err = lib.Evaluate(model.PartitionSquare, "🥗")
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.EvaluateCount)
	assert.Equal(t, int64(1), stats.ScanCount)
	assert.Equal(t, int64(1), stats.ScanEntities)
}
