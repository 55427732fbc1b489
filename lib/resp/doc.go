// Package resp implements the line-oriented wire protocol spoken by respkv.
// It defines the protocol value type and a streaming parser and serializer
// for it. The package knows nothing about storage or commands.
//
// The package focuses on:
//   - A closed set of protocol values (Null, SimpleString, Integer, BulkString,
//     Array and Error) that consumers handle with exhaustive type switches
//   - A single-pass Parser that consumes exactly the bytes of one value per call
//   - A Serializer that writes the exact inverse of the Parser for all
//     representable values
//
// Wire Format:
//
//   - Line terminator: "\r\n" throughout
//   - Simple string: "+<text>\r\n"
//   - Error: "-<text>\r\n"
//   - Integer: ":<optionally signed decimal digits>\r\n" (arbitrary precision)
//   - Bulk string: "$<length>\r\n<length raw bytes>\r\n", "$-1\r\n" is null
//   - Array: "*<count>\r\n" followed by count values, "*-1\r\n" is null and
//     "*0\r\n" is the empty array
//   - Inline command: any line without a leading marker, split on whitespace
//     into an array of simple strings
//
// Note on text payloads:
//
//	The Serializer always writes SimpleString and BulkString values in the
//	binary safe bulk string form. A simple string therefore round trips as a
//	bulk string with the same bytes.
//
// Thread Safety:
//
//	A Parser or Serializer owns its underlying reader or writer and must not
//	be used from multiple goroutines at the same time.
//
// Usage:
//
//	p := resp.NewParser(conn)
//	req, err := p.Next()
//	// ... handle request ...
//	s := resp.NewSerializer(conn)
//	err = s.Write(resp.Array{resp.Bulk("a"), resp.Null{}})
package resp
