package testing

import "context"

// WithDisabledForeignKeys keeps foreign keys suspended for the whole test
// and restores them on teardown.
type WithDisabledForeignKeys struct {
	TestCase
}

func (w *WithDisabledForeignKeys) SetupTest() {
	w.TestCase.SetupTest()

	for _, m := range w.Managers {
		w.Require().NoError(m.Disable(context.Background(), w.Conn))
	}
}

func (w *WithDisabledForeignKeys) TearDownTest() {
	for _, m := range w.Managers {
		w.NoError(m.Enable(context.Background(), w.Conn))
	}

	w.TestCase.TearDownTest()
}
