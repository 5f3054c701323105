package materializer_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goaux/results"
	"github.com/rs/zerolog"

	"github.com/tensorplex-labs/genapp/internal/materializer"
)

func Example() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	dir, err := os.MkdirTemp("", "materializer-example")
	results.Must(err)
	defer os.RemoveAll(dir)

	m, err := materializer.New(filepath.Join(dir, "site"))
	results.Must(err)

	res, err := m.Materialize("```json\n" + `[
		{"filename":"index.html","content":"<h1>hi</h1>"},
		{"filename":"../escape.txt","content":"nope"}
	]` + "\n```")
	results.Must(err)

	for _, o := range res.Outcomes {
		if o.OK() {
			fmt.Printf("created %s (%d bytes)\n", o.Filename, o.Bytes)
		} else {
			fmt.Printf("failed %s\n", o.Filename)
		}
	}
	fmt.Println("ok:", res.OK())
	// Output:
	// created index.html (11 bytes)
	// failed ../escape.txt
	// ok: false
}
