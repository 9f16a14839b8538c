package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnTransformStart(ctx, "format", 128)
	p.OnTransformComplete(ctx, "format", 256, time.Millisecond, nil)

	i := NoopImageHooks{}
	i.OnDecodeComplete(ctx, "png", 640, 480, time.Millisecond, nil)
	i.OnEncodeStart(ctx, "jpeg", 80)
	i.OnEncodeComplete(ctx, "jpeg", 80, 4096, time.Millisecond, nil)
	i.OnEncodeDiscarded(ctx, "jpeg", 50)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "encode")
	c.OnCacheMiss(ctx, "encode")
	c.OnCacheSet(ctx, "encode", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Image().(NoopImageHooks); !ok {
		t.Error("Image() should return NoopImageHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customImage := &testImageHooks{}
	SetImageHooks(customImage)
	if Image() != customImage {
		t.Error("SetImageHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Image().(NoopImageHooks); !ok {
		t.Error("Reset() should restore NoopImageHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testImageHooks{}
	SetImageHooks(custom)
	SetImageHooks(nil)

	if Image() != custom {
		t.Error("SetImageHooks(nil) should be ignored")
	}
}

type testPipelineHooks struct{ NoopPipelineHooks }
type testImageHooks struct{ NoopImageHooks }
type testCacheHooks struct{ NoopCacheHooks }
