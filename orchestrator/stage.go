package orchestrator

import (
	"fmt"
	"time"
)

// Stage is one step of an experiment run. Stages only move forward.
type Stage int

const (
	StageNetworkUp Stage = iota + 1
	StageForwardingUp
	StageRoutingUp
	StageProducersUp
	StageAggregatorsUp
	StageRouteAdvertise
	StageConsumerUp
	StageInteractiveHandoff
)

var stageNames = map[Stage]string{
	StageNetworkUp:          "network-up",
	StageForwardingUp:       "forwarding-up",
	StageRoutingUp:          "routing-up",
	StageProducersUp:        "producers-up",
	StageAggregatorsUp:      "aggregators-up",
	StageRouteAdvertise:     "route-advertise",
	StageConsumerUp:         "consumer-up",
	StageInteractiveHandoff: "interactive-handoff",
}

// Stages lists every stage in run order.
func Stages() []Stage {
	return []Stage{
		StageNetworkUp,
		StageForwardingUp,
		StageRoutingUp,
		StageProducersUp,
		StageAggregatorsUp,
		StageRouteAdvertise,
		StageConsumerUp,
		StageInteractiveHandoff,
	}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Status is the state of a stage.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StageEvent reports a stage status change.
type StageEvent struct {
	Stage  Stage
	Status Status
	Err    error
	At     time.Time
}

// Observer is notified of every stage event. Observe is called from the
// goroutine running the orchestrator and should not block.
type Observer interface {
	Observe(StageEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StageEvent)

func (f ObserverFunc) Observe(ev StageEvent) { f(ev) }
