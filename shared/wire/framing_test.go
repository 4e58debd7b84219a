package wire

import (
	"bytes"
	"testing"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/material"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/vec3"
	"github.com/stretchr/testify/require"
)

func TestObjectRequestRoundTrip(t *testing.T) {
	req := ObjectRequest{
		Kind:      ObjectAddObject,
		Primitive: primitive.NewSphere(vec3.New(1, 2, 3), 0.5, material.NewMetal(vec3.New(0.8, 0.8, 0.8), 0.1)),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, req))

	var got ObjectRequest
	require.NoError(t, ReadFrame(&buf, &got))
	require.Equal(t, req.Kind, got.Kind)
	require.Equal(t, req.Primitive.Center, got.Primitive.Center)
	require.Equal(t, req.Primitive.Material.Kind, got.Primitive.Material.Kind)
}

func TestRayRequestShareParamsRoundTrip(t *testing.T) {
	cam := camera.Default()
	cam.Initialize()
	req := RayRequest{
		Kind:       RayShareParams,
		BrickTable: map[int][]string{0: {"10.0.0.1:8000", "10.0.0.2:8000"}},
		Camera:     cam,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, req))

	var got RayRequest
	require.NoError(t, ReadFrame(&buf, &got))
	require.Equal(t, req.BrickTable, got.BrickTable)
	require.Equal(t, req.Camera.ImageHeight, got.Camera.ImageHeight)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff})
	var got ObjectRequest
	err := ReadFrame(buf, &got)
	require.Error(t, err)
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, PixelResult{Idx: camera.PixelIndex{I: 1, J: 2, Sample: 0}, Color: vec3.New(0.1, 0.2, 0.3)}))
	require.NoError(t, WriteFrame(&buf, PixelResult{Idx: camera.PixelIndex{I: 3, J: 4, Sample: 1}, Color: vec3.New(0.4, 0.5, 0.6)}))

	var first, second PixelResult
	require.NoError(t, ReadFrame(&buf, &first))
	require.NoError(t, ReadFrame(&buf, &second))
	require.Equal(t, 1, first.Idx.I)
	require.Equal(t, 3, second.Idx.I)
}
