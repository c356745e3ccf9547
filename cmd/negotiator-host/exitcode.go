package main

// exitCodeError is a non-user-facing command error used to set the process
// exit code without printing a duplicate message (the command already
// logged what went wrong).
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return ""
}

func (e *exitCodeError) ExitCode() int {
	return e.code
}

func commandExit(code int) error {
	if code == 0 {
		return nil
	}
	return &exitCodeError{code: code}
}
