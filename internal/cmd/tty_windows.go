//go:build windows

package cmd

import (
	"errors"
	"os"
)

var errLocked = errors.New("another smartpick picker is open")

func openTTY(string) (*os.File, error) {
	return nil, errors.New("the picker needs a Unix terminal")
}

func checkTERM() error { return nil }

func checkTermWidth(*os.File) error { return nil }

func acquireLock(string) (int, error) { return -1, nil }

func releaseLock(int) {}
