package amendment_test

import (
	"testing"

	"dispatch/internal/core/domain/model/amendment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmendment(t *testing.T) {
	tariff, err := kernel.ParseTariff("5/8")
	require.NoError(t, err)

	t.Run("should price added packages with the tariff", func(t *testing.T) {
		a, err := amendment.NewAmendment(3, []kernel.Distance{kernel.Near, kernel.Far}, tariff)

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.Equal(t, kernel.OrderID(3), a.OrderID())
		assert.Equal(t, 2, a.AddedPackages())
		assert.Equal(t, []kernel.Distance{kernel.Near, kernel.Far}, a.AddedDistances())
		assert.Equal(t, 13, a.AddedPrice())
	})

	t.Run("should require at least one package", func(t *testing.T) {
		_, err := amendment.NewAmendment(3, nil, tariff)

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject invalid order id", func(t *testing.T) {
		_, err := amendment.NewAmendment(0, []kernel.Distance{kernel.Near}, tariff)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var a amendment.Amendment

		assert.ErrorIs(t, a.Validate(), amendment.ErrAmendmentIsNotConstructed)
	})
}
