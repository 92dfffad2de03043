// internal/metrics/rules.go
package metrics

// HPCC matches the summary block HPCC appends to hpccoutf.txt, which is a
// list of NAME=value lines. Any change to that format breaks these rules.
var HPCC = []Rule{
	MustRule("success", `Success=(\d+.*)`, ""),
	MustRule("hpl", `HPL_Tflops=(\d+.*)`, "TFlops"),
	MustRule("dgemm", `StarDGEMM_Gflops=(\d+.*)`, "GFlops"),
	MustRule("ptrans", `PTRANS_GBs=(\d+.*)`, "GBs"),
	MustRule("random", `StarRandomAccess_GUPs=(\d+.*)`, "GUPs"),
	MustRule("stream", `StarSTREAM_Triad=(\d+.*)`, "MBs"),
	MustRule("fft", `StarFFT_Gflops=(\d+.*)`, "GFlops"),
}

// PerfStat matches the default event table printed by `perf stat`.
var PerfStat = []Rule{
	MustRule("task-clock", `([\d.,]+)\s+msec\s+task-clock`, "msec"),
	MustRule("cycles", `([\d,]+)\s+cycles`, "cycles"),
	MustRule("instructions", `([\d,]+)\s+instructions`, "instructions"),
	MustRule("cache-misses", `([\d,]+)\s+cache-misses`, "misses"),
	MustRule("branch-misses", `([\d,]+)\s+branch-misses`, "misses"),
	MustRule("elapsed", `([\d.]+)(?:\s+\+-\s+[\d.]+)?\s+seconds time elapsed`, "seconds"),
}
