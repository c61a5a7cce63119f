// Package extractordriver runs the external extractor binary against the
// crawl's body store once the engine has quiesced: it spins up a loopback
// HTTP server exposing each fetched body by hash and fans a bounded set of
// child processes out over it.
package extractordriver

import (
	"bytes"
	"log"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dnovak/webscout/pkg/fileutil"
)

// Driver holds the paths the extractor child processes need: where to read
// bodies from, where to write their output, and which binary to run.
type Driver struct {
	bodyDir      string
	extractorDir string
	extractorBin string
}

func New(bodyDir, extractorDir, extractorBin string) *Driver {
	return &Driver{bodyDir: bodyDir, extractorDir: extractorDir, extractorBin: extractorBin}
}

// Run serves hashes over a loopback HTTP server and spawns up to
// max(1, cpus-1) concurrent extractorBin child processes, one per hash,
// each passed the loopback URL for its body. A child's stdout is captured
// to <extractorDir>/<hash>; a non-zero exit is logged and skipped. The
// server is shut down before Run returns, on every path.
func (d *Driver) Run(hashes []string) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hash := strings.TrimPrefix(r.URL.Path, "/")
		http.ServeFile(w, r, filepath.Join(d.bodyDir, hash))
	})
	srv := &http.Server{Handler: mux}

	go srv.Serve(listener)
	defer srv.Close()

	base := "http://" + listener.Addr().String()

	concurrency := runtime.NumCPU() - 1
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, hash := range hashes {
		sem <- struct{}{}
		wg.Add(1)
		go func(hash string) {
			defer wg.Done()
			defer func() { <-sem }()
			d.runOne(hash, base+"/"+hash)
		}(hash)
	}
	wg.Wait()

	return nil
}

func (d *Driver) runOne(hash, url string) {
	cmd := exec.Command(d.extractorBin, url)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		log.Printf("extractor failed hash=%s err=%v", hash, err)
		return
	}

	outPath := filepath.Join(d.extractorDir, hash)
	if classified := fileutil.WriteFileAtomic(outPath, stdout.Bytes(), 0644); classified != nil {
		log.Printf("extractor output write failed hash=%s err=%v", hash, classified)
	}
}
