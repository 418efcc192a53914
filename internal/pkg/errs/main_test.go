package errs

import (
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"userdash/internal/pkg/logx"
)

func TestMain(m *testing.M) {
	logx.SetOutput(io.Discard, zerolog.Disabled)
	os.Exit(m.Run())
}
