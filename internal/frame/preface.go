package frame

// Preface is the 24-byte client connection preface every HTTP/2 connection
// must begin with (RFC 7540 §3.5). A mismatch is a fatal, silent close —
// no GOAWAY is owed to a peer that isn't speaking the protocol.
const Preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// PrefaceLen is len(Preface), kept as a constant for callers that only want
// to size a read buffer.
const PrefaceLen = len(Preface)
