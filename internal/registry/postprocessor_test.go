package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostProcessor struct {
	name  string
	stage ProcessingStage
}

func (f *fakePostProcessor) Name() string { return f.name }
func (f *fakePostProcessor) ProcessingStage() ProcessingStage { return f.stage }
func (f *fakePostProcessor) Initialize(ctx context.Context) error { return nil }
func (f *fakePostProcessor) Shutdown(ctx context.Context) error { return nil }
func (f *fakePostProcessor) Process(ctx context.Context, content string, metadata map[string]interface{}) (string, map[string]interface{}, error) {
	return content + "[" + f.name + "]", metadata, nil
}

func TestPostProcessorRegistry_GetForStage_OrderedByPriority(t *testing.T) {
	r := NewPostProcessorRegistry()
	ctx := context.Background()
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "low", stage: StageEarly}, 1))
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "high", stage: StageEarly}, 10))
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "other-stage", stage: StageLate}, 5))

	early := r.GetForStage(StageEarly)
	require.Len(t, early, 2)
	assert.Equal(t, "high", early[0].Name())
	assert.Equal(t, "low", early[1].Name())

	late := r.GetForStage(StageLate)
	require.Len(t, late, 1)
	assert.Equal(t, "other-stage", late[0].Name())
}

func TestPostProcessorRegistry_RemoveShutsDown(t *testing.T) {
	r := NewPostProcessorRegistry()
	ctx := context.Background()
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "p", stage: StageMiddle}, 1))

	require.NoError(t, r.Remove(ctx, "p"))
	assert.Empty(t, r.GetForStage(StageMiddle))
	assert.Empty(t, r.List())
}

func TestPostProcessorRegistry_List(t *testing.T) {
	r := NewPostProcessorRegistry()
	ctx := context.Background()
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "b", stage: StageEarly}, 1))
	require.NoError(t, r.Register(ctx, &fakePostProcessor{name: "a", stage: StageLate}, 1))

	assert.Equal(t, []string{"a", "b"}, r.List())
}
