package counters

import (
	"github.com/theblitlabs/perfcounters/internal/metrics"
)

// Category names shared by the catalogs and the sources that implement them.
const (
	CategoryMemory       = "Memory"
	CategoryProcessor    = "Processor"
	CategoryLogicalDisk  = "LogicalDisk"
	CategoryPhysicalDisk = "PhysicalDisk"
	CategoryNetwork      = "Network Interface"
	CategorySystem       = "System"
	CategoryProcess      = "Process"
	CategoryGoMemory     = "Go Memory"
	CategoryGoScheduler  = "Go Scheduler"
)

var (
	pagesPerSec  = metrics.Custom("pages/s")
	kbPerSec     = metrics.Custom("kb/s")
	transfersSec = metrics.Custom("transfers/s")
)

// SystemCatalog lists host-wide counters: memory, processor, disk, network
// and system.
func SystemCatalog() []Definition {
	return []Definition{
		def("Available RAM", metrics.MegaBytes, CategoryMemory, "Available Bytes", "", BytesToMegaBytes, "memory"),
		def("Committed RAM", metrics.MegaBytes, CategoryMemory, "Committed Bytes", "", BytesToMegaBytes, "memory"),
		def("Cache RAM", metrics.MegaBytes, CategoryMemory, "Cache Bytes", "", BytesToMegaBytes, "memory"),
		def("Memory Usage", metrics.Percent, CategoryMemory, "% Committed Bytes In Use", "", nil, "memory"),
		def("Pages Input/sec", pagesPerSec, CategoryMemory, "Pages Input/sec", "", nil, "memory"),
		def("Pages Output/sec", pagesPerSec, CategoryMemory, "Pages Output/sec", "", nil, "memory"),
		def("Pages/sec", pagesPerSec, CategoryMemory, "Pages/sec", "", nil, "memory"),
		def("Page Faults/sec", metrics.Custom("faults/s"), CategoryMemory, "Page Faults/sec", "", nil, "memory"),
		def("Pool Nonpaged MBytes", metrics.MegaBytes, CategoryMemory, "Pool Nonpaged Bytes", "", BytesToMegaBytes, "memory"),
		def("Pool Paged MBytes", metrics.MegaBytes, CategoryMemory, "Pool Paged Bytes", "", BytesToMegaBytes, "memory"),
		def("Page Tables MBytes", metrics.MegaBytes, CategoryMemory, "Page Tables Bytes", "", BytesToMegaBytes, "memory"),
		def("Swap Used MBytes", metrics.MegaBytes, CategoryMemory, "Swap Used Bytes", "", BytesToMegaBytes, "memory"),

		def("CPU Usage", metrics.Percent, CategoryProcessor, "% Processor Time", TotalInstance, nil, "cpu"),
		def("Interrupts / sec", metrics.Custom("interrupts/s"), CategoryProcessor, "Interrupts/sec", TotalInstance, nil, "cpu"),
		def("% Interrupt Time", metrics.Percent, CategoryProcessor, "% Interrupt Time", TotalInstance, nil, "cpu"),
		def("% User Time", metrics.Percent, CategoryProcessor, "% User Time", TotalInstance, nil, "cpu"),
		def("% Privileged Time", metrics.Percent, CategoryProcessor, "% Privileged Time", TotalInstance, nil, "cpu"),
		def("% DPC Time", metrics.Percent, CategoryProcessor, "% DPC Time", TotalInstance, nil, "cpu"),
		def("% IO Wait Time", metrics.Percent, CategoryProcessor, "% IO Wait Time", TotalInstance, nil, "cpu"),

		def("Logical Disk Avg. sec/Read", metrics.Milliseconds, CategoryLogicalDisk, "Avg. Disk sec/Read", TotalInstance, SecondsToMillis, "disk"),
		def("Logical Disk Avg. sec/Write", metrics.Milliseconds, CategoryLogicalDisk, "Avg. Disk sec/Write", TotalInstance, SecondsToMillis, "disk"),
		def("Logical Disk Transfers/sec", transfersSec, CategoryLogicalDisk, "Disk Transfers/sec", TotalInstance, nil, "disk"),
		def("Logical Disk Reads/sec", kbPerSec, CategoryLogicalDisk, "Disk Read Bytes/sec", TotalInstance, BytesToKiloBytes, "disk"),
		def("Logical Disk Writes/sec", kbPerSec, CategoryLogicalDisk, "Disk Write Bytes/sec", TotalInstance, BytesToKiloBytes, "disk"),
		def("Logical Disk Free Space", metrics.Percent, CategoryLogicalDisk, "% Free Space", TotalInstance, nil, "disk"),

		def("Physical Disk Avg. sec/Read", metrics.Milliseconds, CategoryPhysicalDisk, "Avg. Disk sec/Read", TotalInstance, SecondsToMillis, "disk"),
		def("Physical Disk Avg. sec/Write", metrics.Milliseconds, CategoryPhysicalDisk, "Avg. Disk sec/Write", TotalInstance, SecondsToMillis, "disk"),
		def("Physical Disk Transfers/sec", transfersSec, CategoryPhysicalDisk, "Disk Transfers/sec", TotalInstance, nil, "disk"),
		def("Physical Disk Reads/sec", kbPerSec, CategoryPhysicalDisk, "Disk Read Bytes/sec", TotalInstance, BytesToKiloBytes, "disk"),
		def("Physical Disk Writes/sec", kbPerSec, CategoryPhysicalDisk, "Disk Write Bytes/sec", TotalInstance, BytesToKiloBytes, "disk"),

		def("Network Received/sec", kbPerSec, CategoryNetwork, "Bytes Received/sec", TotalInstance, BytesToKiloBytes, "network"),
		def("Network Sent/sec", kbPerSec, CategoryNetwork, "Bytes Sent/sec", TotalInstance, BytesToKiloBytes, "network"),
		def("Network Total/sec", kbPerSec, CategoryNetwork, "Bytes Total/sec", TotalInstance, BytesToKiloBytes, "network"),

		def("System Up Time", metrics.Seconds, CategorySystem, "System Up Time", "", nil, "system"),
		def("Processes", metrics.Custom("processes"), CategorySystem, "Processes", "", nil, "system"),
		def("Processor Queue Length", metrics.Threads, CategorySystem, "Processor Queue Length", "", nil, "system", "cpu"),
		def("Context Switches/sec", metrics.Custom("switches/s"), CategorySystem, "Context Switches/sec", "", nil, "system", "cpu"),
		def("Load Average", metrics.None, CategorySystem, "Load Average 1m", "", nil, "system", "cpu"),
	}
}

// AppCatalog lists counters of the process named app and of the Go heap it
// runs on.
func AppCatalog(app string) []Definition {
	return []Definition{
		def("Private MBytes", metrics.MegaBytes, CategoryProcess, "Private Bytes", app, BytesToMegaBytes, "memory"),
		def("Working Set", metrics.MegaBytes, CategoryProcess, "Working Set", app, BytesToMegaBytes, "memory"),
		def("Virtual MBytes", metrics.MegaBytes, CategoryProcess, "Virtual Bytes", app, BytesToMegaBytes, "memory"),
		def("Process CPU Usage", metrics.Percent, CategoryProcess, "% Processor Time", app, nil, "cpu"),
		def("Process Threads", metrics.Threads, CategoryProcess, "Thread Count", app, nil, "threads"),
		def("Open Handles", metrics.Custom("handles"), CategoryProcess, "Handle Count", app, nil, "system"),
		def("IO Data Operations/sec", metrics.Custom("IOPS"), CategoryProcess, "IO Data Operations/sec", app, nil, "disk"),
		def("IO Read KBytes/sec", kbPerSec, CategoryProcess, "IO Read Bytes/sec", app, BytesToKiloBytes, "disk"),
		def("IO Write KBytes/sec", kbPerSec, CategoryProcess, "IO Write Bytes/sec", app, BytesToKiloBytes, "disk"),

		def("Mb in all Heaps", metrics.MegaBytes, CategoryGoMemory, "# Bytes in all Heaps", "", BytesToMegaBytes, "memory"),
		def("Heap Goal", metrics.MegaBytes, CategoryGoMemory, "Heap Goal Bytes", "", BytesToMegaBytes, "memory"),
		def("Heap Free", metrics.MegaBytes, CategoryGoMemory, "Heap Free Bytes", "", BytesToMegaBytes, "memory"),
		def("Heap Released", metrics.MegaBytes, CategoryGoMemory, "Heap Released Bytes", "", BytesToMegaBytes, "memory"),
		def("Stack Memory", metrics.MegaBytes, CategoryGoMemory, "Stack Bytes", "", BytesToMegaBytes, "memory"),
		def("Runtime Memory", metrics.MegaBytes, CategoryGoMemory, "Total Memory Bytes", "", BytesToMegaBytes, "memory"),
		def("Heap Objects", metrics.Custom("objects"), CategoryGoMemory, "Heap Objects", "", nil, "memory"),
		def("Allocated Bytes/second", metrics.KiloBytes, CategoryGoMemory, "Allocated Bytes/sec", "", BytesToKiloBytes, "memory"),
		def("Time in GC", metrics.Percent, CategoryGoMemory, "% Time in GC", "", nil, "memory"),
		def("GC Cycles", metrics.Custom("cycles"), CategoryGoMemory, "GC Cycles", "", nil, "memory"),
		def("GC Cycles / sec", metrics.Custom("cycles/s"), CategoryGoMemory, "GC Cycles/sec", "", nil, "memory"),
	}
}

// RuntimeCatalog lists Go scheduler gauges.
func RuntimeCatalog() []Definition {
	return []Definition{
		def("Logical Threads", metrics.Threads, CategoryGoScheduler, "Goroutines", "", nil, "threads"),
		def("Physical Threads", metrics.Threads, CategoryGoScheduler, "OS Threads", "", nil, "threads"),
		def("GOMAXPROCS", metrics.Threads, CategoryGoScheduler, "GOMAXPROCS", "", nil, "threads"),
		def("Logical CPUs", metrics.Custom("cpus"), CategoryGoScheduler, "Logical CPUs", "", nil, "threads"),
		def("Total Contention Time", metrics.Seconds, CategoryGoScheduler, "Mutex Wait Seconds", "", nil, "threads"),
		def("Contention Rate / Sec", metrics.Custom("s/s"), CategoryGoScheduler, "Mutex Wait/sec", "", nil, "threads"),
	}
}
