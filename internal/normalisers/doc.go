// Package normalisers turns raw message formats into ingest requests.
//
// Each sub-package handles one format. Only RFC 822 (.eml) messages are
// supported today.
package normalisers
