// Package profilers installs the profiling flags on the binaries that link it.
//
// It only supports debugging, and otherwise has no functionality for the game.
package profilers

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime/pprof"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagHTTPProfiler = flag.Int("prof", -1, "If set, serves the pprof handlers on the given localhost port.")
	flagCPUProfile   = flag.String("cpu_profile", "", "write cpu profile to `file`")
)

// Setup starts the CPU profiler (flag -cpu_profile) and the HTTP profiler (flag -prof), if they were
// configured. It returns a function that stops them, typically deferred.
func Setup() (stop func(), err error) {
	var stops []func()
	stop = func() {
		for _, fn := range stops {
			fn()
		}
	}
	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			return stop, errors.Wrapf(err, "could not create CPU profile %q", *flagCPUProfile)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return stop, errors.Wrap(err, "could not start CPU profile")
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			if err := f.Close(); err != nil {
				klog.Errorf("Failed to close CPU profile %q: %+v", *flagCPUProfile, err)
			}
		})
	}
	if *flagHTTPProfiler >= 0 {
		server := &http.Server{Addr: fmt.Sprintf("localhost:%d", *flagHTTPProfiler)}
		klog.Infof("Profiler serving on http://%s/debug/pprof, e.g.: $ go tool pprof %s/debug/pprof/heap",
			server.Addr, server.Addr)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				klog.Errorf("Profiler failed: %+v", err)
			}
		}()
		stops = append(stops, func() { _ = server.Close() })
	}
	return stop, nil
}
