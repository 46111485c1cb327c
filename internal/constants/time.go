package constants

import "time"

// DefaultRequestTimeout bounds a local gateway invocation when no deadline is configured.
const DefaultRequestTimeout = 30 * time.Second

// DefaultInvokeTimeout bounds a CLI invocation, local or remote.
const DefaultInvokeTimeout = time.Minute
