package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in       string
		expected ProviderBackend
		fail     bool
	}{
		{in: "", expected: CPUProviderBackend},
		{in: "cpu", expected: CPUProviderBackend},
		{in: "CoreML", expected: CoreMLProviderBackend},
		{in: " cuda ", expected: CUDAProviderBackend},
		{in: "openvino", expected: OpenVINOProviderBackend},
		{in: "tensorrt", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, err := ParseBackend(tt.in)
			if tt.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b)
		})
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		options  ProviderOptions
		expected ProviderBackend
	}{
		{name: "nil", options: nil, expected: CPUProviderBackend},
		{name: "cpu", options: CPUOptions{}, expected: CPUProviderBackend},
		{name: "coreml", options: CoreMLOptions{MLProgram: true}, expected: CoreMLProviderBackend},
		{name: "cuda", options: CUDAOptions{DeviceID: 1}, expected: CUDAProviderBackend},
		{name: "openvino", options: OpenVINOOptions{DeviceType: "GPU"}, expected: OpenVINOProviderBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p.Backend())
			if tt.options != nil {
				assert.Equal(t, tt.options, p.Options())
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{Backend: "openvino", OpenVINO: OpenVINOOptions{DeviceType: "NPU"}}
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, OpenVINOOptions{DeviceType: "NPU"}, opts)

	opts, err = DefaultConfig().Options()
	require.NoError(t, err)
	assert.Equal(t, CPUOptions{}, opts)

	_, err = Config{Backend: "tpu"}.Options()
	assert.Error(t, err)
}

func TestCoreMLFlags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x011), CoreMLOptions{CPUOnly: true, MLProgram: true}.Flags())
	assert.Equal(t, uint32(0x01f), CoreMLOptions{
		CPUOnly: true, EnableOnSubgraphs: true, OnlyNeuralEngine: true,
		RequireStaticInputShapes: true, MLProgram: true,
	}.Flags())
}

func TestCUDASettings(t *testing.T) {
	s := CUDAOptions{}.Settings()
	assert.Equal(t, map[string]string{
		"device_id":                 "0",
		"do_copy_in_default_stream": "0",
		"use_tf32":                  "0",
	}, s)

	s = CUDAOptions{
		DeviceID:              2,
		GPUMemLimit:           2147483648,
		ArenaExtendStrategy:   "kSameAsRequested",
		CudnnConvAlgoSearch:   "HEURISTIC",
		DoCopyInDefaultStream: true,
	}.Settings()
	assert.Equal(t, "2", s["device_id"])
	assert.Equal(t, "2147483648", s["gpu_mem_limit"])
	assert.Equal(t, "kSameAsRequested", s["arena_extend_strategy"])
	assert.Equal(t, "HEURISTIC", s["cudnn_conv_algo_search"])
	assert.Equal(t, "1", s["do_copy_in_default_stream"])
}

func TestOpenVINOSettings(t *testing.T) {
	assert.Empty(t, OpenVINOOptions{}.Settings())
	assert.Equal(t, map[string]string{
		"device_type":    "GPU",
		"precision":      "FP16",
		"num_of_threads": "4",
	}, OpenVINOOptions{DeviceType: "GPU", Precision: "FP16", NumOfThreads: 4}.Settings())
}

func TestResolveSharedLibPath(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libonnxruntime.so")
	require.NoError(t, os.WriteFile(lib, []byte("stub"), 0o600))

	got, err := ResolveSharedLibPath(lib)
	require.NoError(t, err)
	assert.Equal(t, lib, got)

	_, err = ResolveSharedLibPath(filepath.Join(dir, "missing.so"))
	assert.Error(t, err)

	t.Setenv(LibraryPathEnv, lib)
	assert.Equal(t, lib, GetSharedLibPath())
	got, err = ResolveSharedLibPath("")
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}
