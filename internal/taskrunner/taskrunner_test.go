package taskrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stitch-ai/internal/dto"
	"stitch-ai/log"
)

func init() {
	log.Logger = zap.NewNop()
}

// pipelineStub 记录执行过的任务，gate 非空时阻塞以模拟长任务
type pipelineStub struct {
	ran     chan string
	entered chan struct{}
	gate    chan struct{}
	err     error
}

func (p *pipelineStub) RunSequencePipeline(_ context.Context, taskId string, _ dto.StartSequenceTaskReq) error {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate != nil {
		<-p.gate
	}
	if p.ran != nil {
		p.ran <- taskId
	}
	return p.err
}

func validReq() dto.StartSequenceTaskReq {
	return dto.StartSequenceTaskReq{MetaDir: "testdata/meta"}
}

func TestRunnerProcessesSubmittedJob(t *testing.T) {
	stub := &pipelineStub{ran: make(chan string, 1)}
	r := New(stub, DefaultConfig())
	defer r.Close()

	require.NoError(t, r.SubmitSequenceTask("beach_a1B2", validReq()))

	select {
	case got := <-stub.ran:
		assert.Equal(t, "beach_a1B2", got)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was never invoked")
	}
}

func TestRunnerKeepsWorkingAfterPipelineError(t *testing.T) {
	stub := &pipelineStub{ran: make(chan string, 2), err: errors.New("render failed")}
	r := New(stub, Config{Concurrency: 1})
	defer r.Close()

	require.NoError(t, r.SubmitSequenceTask("beach_a1B2", validReq()))
	require.NoError(t, r.SubmitSequenceTask("beach_c3D4", validReq()))

	for _, want := range []string{"beach_a1B2", "beach_c3D4"} {
		select {
		case got := <-stub.ran:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped after pipeline error")
		}
	}
}

func TestRunnerRejectsEmptyMetaDir(t *testing.T) {
	r := New(&pipelineStub{}, DefaultConfig())
	defer r.Close()

	err := r.SubmitSequenceTask("beach_a1B2", dto.StartSequenceTaskReq{})
	assert.ErrorContains(t, err, "meta dir")
}

func TestRunnerRejectsSubmitAfterClose(t *testing.T) {
	r := New(&pipelineStub{}, DefaultConfig())
	r.Close()

	err := r.SubmitSequenceTask("beach_a1B2", validReq())
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerReportsQueueFull(t *testing.T) {
	stub := &pipelineStub{
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	r := New(stub, Config{QueueSize: 1, Concurrency: 1})
	defer r.Close()
	defer close(stub.gate)

	// 等第一个任务真正进入 worker 再填缓冲，时序才可控
	require.NoError(t, r.SubmitSequenceTask("beach_a1B2", validReq()))
	<-stub.entered
	require.NoError(t, r.SubmitSequenceTask("beach_c3D4", validReq()))

	err := r.SubmitSequenceTask("beach_e5F6", validReq())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestNormalizeConfigAppliesDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{QueueSize: -3})
	assert.Equal(t, defaultQueueSize, cfg.QueueSize)
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)

	cfg = normalizeConfig(Config{QueueSize: 9, Concurrency: 5})
	assert.Equal(t, 9, cfg.QueueSize)
	assert.Equal(t, 5, cfg.Concurrency)
}
