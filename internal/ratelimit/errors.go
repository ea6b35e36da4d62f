package ratelimit

import "errors"

var (
	errUnexpectedReply = errors.New("ratelimit: unexpected script reply")
	errNoBackend       = errors.New("ratelimit: no backend configured")
)
