// Command kairossim runs the kernel's priority-preemption scenario against
// the hosted port, as a smoke test of the wiring between [kernel.System]
// and [simport.Port].
package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/kairos-rtos/kairos/kernel"
	"github.com/kairos-rtos/kairos/simport"
)

func main() {
	var seq atomic.Int32
	next := func(want int32) {
		got := seq.Add(1)
		if got != want {
			fmt.Fprintf(os.Stderr, "sequence mismatch: got %d want %d\n", got, want)
			os.Exit(1)
		}
	}

	port := simport.New()

	const (
		t1 kernel.TaskID = 0
		t2 kernel.TaskID = 1
		t3 kernel.TaskID = 2
	)

	done := make(chan struct{})

	var sys *kernel.System
	var err error
	sys, err = kernel.New(port,
		kernel.WithTask(kernel.TaskConfig{
			Priority:  3,
			Activated: true,
			Entry: func(uintptr) {
				next(1)
				if err := sys.ActivateTask(t2); err != nil {
					panic(err)
				}
				next(3)
				close(done)
			},
		}),
		kernel.WithTask(kernel.TaskConfig{
			Priority: 1,
			Entry: func(uintptr) {
				next(2)
			},
		}),
		kernel.WithTask(kernel.TaskConfig{
			Priority: 2,
			Entry:    func(uintptr) {},
		}),
	)
	if err != nil {
		panic(err)
	}
	_ = t3
	port.Bind(sys)

	if err := sys.Boot(); err != nil {
		panic(err)
	}

	select {
	case <-done:
		fmt.Println("priority preemption scenario: sequence reached 1, 2, 3 as expected")
	case <-time.After(2 * time.Second):
		fmt.Fprintln(os.Stderr, "timed out waiting for scenario to complete")
		os.Exit(1)
	}
}
