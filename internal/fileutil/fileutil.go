package fileutil

import "os"

// OwnerReadWrite is the file permission mode for catalog output files,
// which describe an API's surface in detail (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// ReadableByAll is the file permission mode for generated source code
// files intended to be read by build tools and other users.
const ReadableByAll os.FileMode = 0o644
