// Command codanna-decode-ids is a small debug utility for turning the
// opaque numeric SymbolID/FileID values that show up in logs and tool
// output back into human-readable records, mirroring the teacher's
// cmd/decode_ids debug helper. The teacher's IDs are bit-packed
// (file/line/type folded into one integer) and decode offline with no
// store access; this module's IDs are plain Counter-issued integers
// with no structure to unpack, so decoding means looking the row up
// in the store instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/store"
)

func main() {
	indexPath := flag.String("index", ".codanna/index", "path to the store's index directory")
	asFile := flag.Bool("file", false, "treat the arguments as FileIDs instead of SymbolIDs")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: codanna-decode-ids [-index path] [-file] <id> [id...]")
		os.Exit(2)
	}

	st, err := store.Open(*indexPath, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "codanna-decode-ids: open store:", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	exit := 0
	for _, arg := range flag.Args() {
		raw, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: not a number: %v\n", arg, err)
			exit = 1
			continue
		}
		if *asFile {
			decodeFile(ctx, st, arg, ids.FileID(raw))
		} else {
			decodeSymbol(ctx, st, arg, ids.SymbolID(raw))
		}
	}
	os.Exit(exit)
}

func decodeSymbol(ctx context.Context, st *store.Store, arg string, id ids.SymbolID) {
	sym, ok, err := st.SymbolByID(ctx, id)
	if err != nil {
		fmt.Printf("%s -> SymbolID=%d: error: %v\n", arg, id, err)
		return
	}
	if !ok {
		fmt.Printf("%s -> SymbolID=%d: not found\n", arg, id)
		return
	}
	file, _, _ := st.FileInfoByID(ctx, sym.FileID)
	fmt.Printf("%s -> SymbolID=%d [%s %s @ %s:%d, lang=%d]\n",
		arg, id, sym.Kind, sym.Name, file.Path, sym.Range.StartLine+1, sym.LanguageID)
}

func decodeFile(ctx context.Context, st *store.Store, arg string, id ids.FileID) {
	file, ok, err := st.FileInfoByID(ctx, id)
	if err != nil {
		fmt.Printf("%s -> FileID=%d: error: %v\n", arg, id, err)
		return
	}
	if !ok {
		fmt.Printf("%s -> FileID=%d: not found\n", arg, id)
		return
	}
	fmt.Printf("%s -> FileID=%d [%s, hash=%s, last_indexed=%d]\n",
		arg, id, file.Path, file.ContentHash, file.LastIndexedAt)
}
