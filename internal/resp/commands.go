package resp

import (
	"strconv"

	"github.com/joeycumines/go-kvbench/internal/optab"
)

// Command builds the inline wire form for one operation, writing into w
// (which the caller must Reset first). k is the primary key id, h the
// secondary hash-field id (only used by hash ops), and payload the bytes a
// write op sends (nil for read-only and IDLE ops). The key-name literals
// below (string:, list:, hash:, key:) are exact: they partition the
// server's keyspace by data type, so changing them changes which data type
// an op touches.
func Command(w *Writer, op optab.Op, k, h uint64, payload []byte) {
	switch op {
	case optab.Idle:
		return
	case optab.Get:
		w.Token("GET").Token("string:" + strconv.FormatUint(k, 10)).End()
	case optab.Set:
		w.Token("SET").Token("string:"+strconv.FormatUint(k, 10)).Bulk(payload).End()
	case optab.Del:
		w.Token("DEL").
			Token("string:" + strconv.FormatUint(k, 10)).
			Token("list:" + strconv.FormatUint(k, 10)).
			Token("hash:" + strconv.FormatUint(k, 10)).
			End()
	case optab.LPush:
		w.Token("LPUSH").Token("list:"+strconv.FormatUint(k, 10)).Bulk(payload).End()
	case optab.LPop:
		w.Token("LPOP").Token("list:" + strconv.FormatUint(k, 10)).End()
	case optab.HSet:
		w.Token("HSET").
			Token("hash:"+strconv.FormatUint(k, 10)).
			Token("key:"+strconv.FormatUint(h, 10)).
			Bulk(payload).End()
	case optab.HGet:
		w.Token("HGET").
			Token("hash:"+strconv.FormatUint(k, 10)).
			Token("key:"+strconv.FormatUint(h, 10)).
			End()
	case optab.HGetAll:
		w.Token("HGETALL").Token("hash:" + strconv.FormatUint(k, 10)).End()
	case optab.SwapIn:
		w.Token("DEBUG").Token("SWAPIN").Token("string:"+strconv.FormatUint(k, 10)).End()
	}
}
