package bundle

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Role document file names inside algorithm/<variant>/.
const (
	ConsumerFile      = "conconfig.ini"
	ProducerFile      = "proconfig.ini"
	AggregatorCatFile = "aggregatorcat.ini"
	AggregatorPutFile = "aggregatorput.ini"
)

// Fixed role parameters. Durations are milliseconds.
const (
	consumerPipeline    = "hybla"
	namingConvention    = "typed"
	interestLifetimeMs  = "4000"
	maxRetries          = "1024"
	consumerCycleMs     = "200"
	aggregatorCycleMs   = "1000"
	appLogLevel         = "err"
	producerLogLevel    = "debug"
	consumerFaces       = "3"
	aggregatorFaces     = "1"
	tableSize           = "10"
	maxBufferedChunks   = "1024"
	dataFreshnessMs     = "10000"
	dataPacketSize      = "4096"
	initCwnd            = "2.0"
	initSsthresh        = "1.7976931348623157e+308"
	rtoAlpha            = "0.125"
	rtoBeta             = "0.25"
	rtoK                = "8"
	minRtoMs            = "200"
	maxRtoMs            = "60000"
	aimdStep            = "1.0"
	aimdBeta            = "0.5"
	cubicBeta           = "0.7"
	hsccGrowthFactor    = "0.01"
	hsccReductionFactor = "0.8"
	hsccBandwidthExp    = "0.9"
	bdpScale            = "1.1"
)

// Files lists the role documents in the order they are emitted.
var Files = []string{ConsumerFile, ProducerFile, AggregatorCatFile, AggregatorPutFile}

type key struct {
	name, value string
}

type section struct {
	name string
	keys []key
}

type document []section

func (p Params) topologyPath() string {
	path := filepath.ToSlash(filepath.Join(p.root(), p.Label, "web.conf"))
	if filepath.IsAbs(path) {
		return path
	}
	return "./" + path
}

func (p Params) logPath(file string) string {
	return fmt.Sprintf("./logs/%s/%s", p.Label, file)
}

func adaptivePipeline(p Params, who string) section {
	return section{"AdaptivePipeline", []key{
		{"ignore-marks", "false"},
		{"disable-cwa", "false"},
		{"init-cwnd", initCwnd},
		{"init-ssthresh", initSsthresh},
		{"rto-alpha", rtoAlpha},
		{"rto-beta", rtoBeta},
		{"rto-k", rtoK},
		{"min-rto", minRtoMs},
		{"max-rto", maxRtoMs},
		{"log-cwnd", p.logPath(who + "-cwnd.txt")},
		{"log-rtt", p.logPath(who + "-rtt.txt")},
	}}
}

func aimdPipeline() section {
	return section{"AIMDPipeline", []key{
		{"aimd-step", aimdStep},
		{"aimd-beta", aimdBeta},
		{"reset-cwnd-to-init", "false"},
	}}
}

func consumerDocument(p Params) document {
	return document{
		{"General", []key{
			{"name", "/" + p.Label + "-con"},
			{"lifetime", interestLifetimeMs},
			{"retries", maxRetries},
			{"pipeline-type", consumerPipeline},
			{"naming-convention", namingConvention},
			{"quiet", "false"},
			{"verbose", "false"},
			{"totalchunksnumber", strconv.FormatInt(p.Plan.ChunkCount, 10)},
			{"recordingcycle", consumerCycleMs},
			{"topofilepath", p.topologyPath()},
			{"primarytopofilepath", p.topologyPath()},
			{"log-level", appLogLevel},
			{"chunk-size", strconv.FormatInt(p.Plan.ChunkSize, 10)},
			{"num-faces", consumerFaces},
			{"table-size", tableSize},
		}},
		adaptivePipeline(p, "con"),
		aimdPipeline(),
		{"CubicPipeline", []key{
			{"cubic-beta", cubicBeta},
			{"enable-fast-conv", "true"},
		}},
		{"HighSpeedPipeline", []key{
			{"hscc-growth-factor", hsccGrowthFactor},
			{"hscc-reduction-factor", hsccReductionFactor},
			{"hscc-bandwidth-exp", hsccBandwidthExp},
			{"bdp-scale", bdpScale},
		}},
	}
}

// publisherGeneral is shared by the producer and the aggregator's emit side.
func publisherGeneral(p Params, name string) section {
	return section{name, []key{
		{"freshness", dataFreshnessMs},
		{"size", dataPacketSize},
		{"naming-convention", namingConvention},
		{"print-data-version", "false"},
		{"quiet", "false"},
		{"verbose", "false"},
		{"chunk-size", strconv.FormatInt(p.Plan.ChunkSize, 10)},
	}}
}

func producerDocument(p Params) document {
	return document{
		publisherGeneral(p, "general"),
		{"Logging", []key{
			{"log-file", p.logPath("producer.txt")},
			{"log-level", producerLogLevel},
		}},
	}
}

func aggregatorCatDocument(p Params, v Variant) document {
	return document{
		{"General", []key{
			{"name", "/" + p.Label + "-agg"},
			{"lifetime", interestLifetimeMs},
			{"retries", maxRetries},
			{"pipeline-type", string(v)},
			{"naming-convention", namingConvention},
			{"quiet", "false"},
			{"verbose", "false"},
			{"totalchunksnumber", strconv.FormatInt(p.Plan.ChunkCount, 10)},
			{"recordingcycle", aggregatorCycleMs},
			{"topofilepath", p.topologyPath()},
			{"primarytopofilepath", p.topologyPath()},
			{"log-level", appLogLevel},
			{"chunk-size", strconv.FormatInt(p.Plan.ChunkSize, 10)},
			{"num-faces", aggregatorFaces},
			{"table-size", tableSize},
			{"max-buffered-chunks", maxBufferedChunks},
		}},
		adaptivePipeline(p, "agg"),
		aimdPipeline(),
		{"CUBICPipeline", []key{
			{"cubic-beta", cubicBeta},
			{"enable-fast-conv", "false"},
		}},
	}
}

func aggregatorPutDocument(p Params) document {
	return document{
		publisherGeneral(p, "General"),
		{"Logging", []key{
			// no leading "./" here, unlike the other log paths
			{"log-file", strings.TrimPrefix(p.logPath("agg-producer.txt"), "./")},
			{"log-level", producerLogLevel},
		}},
	}
}
