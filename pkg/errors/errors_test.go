package errors_test

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	xe "github.com/opst/libris/pkg/errors"
)

type MyErr struct{}

func (MyErr) Error() string {
	return "error type for test"
}

func createError(message string) error {
	return xe.New(message)
}

func TestNew(t *testing.T) {
	t.Run("it knows location where it is created.", func(t *testing.T) {
		testee := createError("test error")
		errMessage := testee.Error()

		_, thisFile, _, _ := runtime.Caller(0)

		if !strings.Contains(errMessage, "createError") {
			t.Errorf("it does not know function name: %s", errMessage)
		}
		if !strings.Contains(errMessage, thisFile) {
			t.Errorf("it does not know file (%s): %s", thisFile, errMessage)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("it supports errors protocol", func(t *testing.T) {
		rootError := MyErr{}
		err := xe.Wrap(fmt.Errorf("%w", fmt.Errorf("%w", rootError)))

		if !errors.Is(err, rootError) {
			t.Error("it does not support unwrapping.")
		}
	})

	t.Run("it passes nil through", func(t *testing.T) {
		if err := xe.Wrap(nil); err != nil {
			t.Errorf("Wrap(nil) should be nil, but %v", err)
		}
		if err := xe.WrapWithNote("note", nil); err != nil {
			t.Errorf("WrapWithNote(_, nil) should be nil, but %v", err)
		}
	})

	t.Run("it puts the note in the message", func(t *testing.T) {
		err := xe.WrapWithNote("while borrowing", MyErr{})
		if !strings.Contains(err.Error(), "(while borrowing)") {
			t.Errorf("note is missing: %s", err.Error())
		}
		var ewc *xe.ErrWithCaller
		if !errors.As(err, &ewc) {
			t.Fatalf("it should be ErrWithCaller: %T", err)
		}
		if !strings.HasSuffix(ewc.Func(), "TestWrap.func3") {
			t.Errorf("unexpected func name: %s", ewc.Func())
		}
	})
}
