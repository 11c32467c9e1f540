// Package bgv decodes binary graph dumps written by a JIT compiler's graph
// logging. One file holds many snapshots of the compiler's IR graph, one per
// compilation phase, sharing a constant pool.
//
// # Stream layout
//
// A dump starts with the magic "BIGV" and a major.minor version. Records
// follow: groups (usually one per compiled method) open and close around
// snapshots, pool entries define constants, and each snapshot consists of a
// header and a body of node and edge records. Several record shapes depend
// on the version; the supported set is [SupportedVersions] and the
// differences are kept in one internal table.
//
// # Reading
//
// [Parser] is a state machine driven in stream order:
//
//	p := bgv.NewParser(r)
//	if _, err := p.ReadFileHeader(true); err != nil {
//	    return err
//	}
//	for {
//	    ph, ok, err := p.ReadSnapshotPreheader()
//	    if err != nil || !ok {
//	        return err
//	    }
//	    if ph.Index != want {
//	        _ = p.SkipSnapshotHeader()
//	        _ = p.SkipSnapshot()
//	        continue
//	    }
//	    h, _ := p.ReadSnapshotHeader()
//	    g, _ := p.ReadSnapshot()
//	    fmt.Println(bgv.DisplayName(h), g.NodeCount())
//	}
//
// Skipping decodes structurally and discards; headers and bodies carry no
// length prefix. A skip consumes exactly the bytes the matching read would
// and fails with the same error codes, but builds no nodes or edges.
//
// [Open], [ListSnapshots], [OpenGraph] and [EachGraph] wrap the loop for
// files on disk.
//
// # Constant pool
//
// Pool ids are reassigned by the encoder, so a later definition replaces an
// earlier one. References resolve against the pool as it stands when they
// are decoded. [WithPoolObserver] reports every insertion, which is how the
// CLI's debug command traces a dump.
//
// # Errors
//
// Failures are *errors.Error values with code FORMAT (bad magic or an
// unknown tag), VERSION, DECODE (truncation, bad pool references, malformed
// varints, dangling edges) or DUPLICATE_NODE, positioned at the byte offset
// where they were detected. After any failure the parser only returns
// INVALID_STATE.
package bgv
