// Package fetch retrieves wiki pages as parsed goquery documents, either with a
// plain HTTP GET or through a headless Chrome session for pages whose brackets
// are rendered client-side.
package fetch
