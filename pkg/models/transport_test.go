package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-realtone/internal/errors"
	"go-realtone/internal/realtone"
)

func TestClassifyRequest_Sample(t *testing.T) {
	var req ClassifyRequest
	require.NoError(t, json.Unmarshal([]byte(`{"r":175,"g":140,"b":110}`), &req))
	assert.Equal(t, &realtone.SampledColor{R: 175, G: 140, B: 110}, req.Sample())

	var empty ClassifyRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.Nil(t, empty.Sample())

	partial := ClassifyRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"r":0}`), &partial))
	s := partial.Sample()
	require.NotNil(t, s)
	assert.Zero(t, s.R)
	assert.True(t, math.IsNaN(s.G))
	assert.True(t, math.IsNaN(s.B))
	assert.Equal(t, realtone.FallbackCategoryID, realtone.Classify(s).ID)
}

func TestNewClassifyResponse(t *testing.T) {
	resp := NewClassifyResponse(realtone.Scale[5], 12.5)
	require.NotNil(t, resp.Distance)
	assert.Equal(t, 12.5, *resp.Distance)

	inf := NewClassifyResponse(realtone.Scale[4], math.Inf(1))
	assert.Nil(t, inf.Distance)
	_, err := json.Marshal(inf)
	assert.NoError(t, err)
}

func TestLegacySettingsResponse_FlattensSettings(t *testing.T) {
	raw, err := json.Marshal(LegacySettingsResponse{})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "gamma")
	assert.NotContains(t, fields, "face_adjusted_exposure")
}

func TestNewErrorResponse(t *testing.T) {
	appErr := apperrors.NewValidationError("image reference cannot be empty", nil).WithDetails("image")
	resp := NewErrorResponse(fmt.Errorf("analyze: %w", appErr))
	assert.Equal(t, ErrorResponse{Error: "validation", Message: "image reference cannot be empty", Details: "image"}, resp)

	plain := NewErrorResponse(errors.New("boom"))
	assert.Equal(t, "internal", plain.Error)
	assert.Equal(t, "boom", plain.Message)
}
