package processor

import "fmt"

// senderError is a business error whose message is rendered back to the
// sender as "Error: <message>". Channel state is unchanged when one is
// returned.
type senderError struct {
	msg string
}

func (e senderError) Error() string { return e.msg }

func errorf(format string, args ...any) error {
	return senderError{msg: fmt.Sprintf(format, args...)}
}
