package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
)

func TestDatasetLoadError(t *testing.T) {
	t.Run("with file and cause", func(t *testing.T) {
		cause := errors.New("unexpected EOF")
		err := recerrors.NewDatasetLoadError("invoice", "facturas.xlsx", cause)

		assert.Equal(t, `failed to load invoice dataset from "facturas.xlsx": unexpected EOF`, err.Error())
		assert.True(t, errors.Is(err, recerrors.ErrDatasetLoad))
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("run aborted: %w", recerrors.NewDatasetLoadError("manifest", "", nil))
		assert.True(t, recerrors.IsDatasetLoad(err))
		assert.False(t, recerrors.IsColumnNotFound(err))
		assert.Contains(t, err.Error(), "manifest")
	})
}

func TestColumnNotFoundError(t *testing.T) {
	t.Run("names dataset and keywords", func(t *testing.T) {
		err := recerrors.NewColumnNotFoundError("manifest", []string{"GUIDE", "TRACKING"}, []string{"Fecha", "Cliente"})

		assert.Contains(t, err.Error(), "manifest")
		assert.Contains(t, err.Error(), "GUIDE, TRACKING")
		assert.Contains(t, err.Error(), "Fecha, Cliente")
		assert.True(t, recerrors.IsColumnNotFound(err))
	})

	t.Run("with suggestion", func(t *testing.T) {
		err := recerrors.NewColumnNotFoundError("invoice", []string{"GUIDE"}, []string{"Guid"})
		err.Suggestion = "Guid"
		assert.Contains(t, err.Error(), `did you mean "Guid"?`)
	})

	t.Run("as", func(t *testing.T) {
		var target *recerrors.ColumnNotFoundError
		wrapped := fmt.Errorf("reconcile: %w", recerrors.NewColumnNotFoundError("invoice", nil, nil))
		require.True(t, recerrors.As(wrapped, &target))
		assert.Equal(t, "invoice", target.Dataset)
	})
}

func TestRenderError(t *testing.T) {
	cause := errors.New("font not found")

	err := recerrors.NewRenderError("pdf", "chart", cause)
	assert.Equal(t, "failed to render pdf report (chart): font not found", err.Error())
	assert.True(t, recerrors.IsRender(err))
	assert.Equal(t, cause, err.Unwrap())

	noStage := &recerrors.RenderError{Format: "xlsx", Err: cause}
	assert.Equal(t, "failed to render xlsx report: font not found", noStage.Error())
}
