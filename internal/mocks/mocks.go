// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"
	"stitch-ai/internal/types"

	"github.com/stretchr/testify/mock"
)

// MockFrameSampler is a mock implementation of types.FrameSampler
type MockFrameSampler struct {
	mock.Mock
}

func (m *MockFrameSampler) SampleFrame(ctx context.Context, videoPath string, ts float64, outPath string) error {
	args := m.Called(ctx, videoPath, ts, outPath)
	return args.Error(0)
}

// MockDurationProber is a mock implementation of types.DurationProber
type MockDurationProber struct {
	mock.Mock
}

func (m *MockDurationProber) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	args := m.Called(ctx, videoPath)
	return args.Get(0).(float64), args.Error(1)
}

// MockRenderer is a mock implementation of types.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, plan types.RenderPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockRenderer) ConcatCopy(ctx context.Context, listPath, outputPath string) error {
	args := m.Called(ctx, listPath, outputPath)
	return args.Error(0)
}

// MockFrameAnalyzer is a mock implementation of types.FrameAnalyzer
type MockFrameAnalyzer struct {
	mock.Mock
}

func (m *MockFrameAnalyzer) DescribeFrame(ctx context.Context, imagePath string) (types.AttributeSet, error) {
	args := m.Called(ctx, imagePath)
	return args.Get(0).(types.AttributeSet), args.Error(1)
}

// MockNotifier is a mock implementation of types.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyTaskState(ctx context.Context, event types.TaskStateEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
