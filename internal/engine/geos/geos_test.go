package geos

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverOpErr(t *testing.T) {
	boom := eris.New("TopologyException: side location conflict")

	run := func(panicWith any) error {
		var err error
		func() {
			defer recoverOpErr("buffer", &err)
			if panicWith != nil {
				panic(panicWith)
			}
		}()
		return err
	}

	t.Run("error panic becomes wrapped error", func(t *testing.T) {
		err := run(boom)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "geos: buffer")
	})

	t.Run("non-error panic becomes error", func(t *testing.T) {
		err := run("invalid geometry")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid geometry")
	})

	t.Run("no panic leaves err nil", func(t *testing.T) {
		assert.NoError(t, run(nil))
	})
}
