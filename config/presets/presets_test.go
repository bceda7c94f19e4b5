package presets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	require.Equal(t, []string{"fast", "lan"}, Options())
	for _, name := range Options() {
		t.Run(name, func(t *testing.T) {
			conf, err := Get(name)
			require.NoError(t, err)
			require.NoError(t, conf.Validate())
		})
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("mainnet")
	require.ErrorContains(t, err, "fast")
}

func TestRegisterTwice(t *testing.T) {
	require.Panics(t, func() { register("fast", fast()) })
}
