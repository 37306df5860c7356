package reachability

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	herrors "github.com/pankaj-dahiya-devops/aws-hygiene/internal/errors"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/logger"
	"github.com/pankaj-dahiya-devops/aws-hygiene/internal/models"
)

const packageName = "reachability"

// Fetcher streams one region's route tables and instances. Both sequences
// are lazy and restartable: every range over them issues a fresh paginated
// listing. Implementations check ctx once per page and yield the context
// error on cancellation.
type Fetcher interface {
	RouteTables(ctx context.Context) iter.Seq2[models.RouteTable, error]
	Instances(ctx context.Context) iter.Seq2[models.Instance, error]
}

// FetcherFactory returns the Fetcher bound to region.
type FetcherFactory func(region string) Fetcher

// RegionScanner classifies every instance of a single region.
// A RegionScanner holds no per-scan state and is safe for concurrent use.
type RegionScanner struct {
	fetchers FetcherFactory
	logger   *zap.Logger
}

// NewRegionScanner returns a scanner that obtains region-bound fetchers from
// f. A nil log falls back to the global logger.
func NewRegionScanner(f FetcherFactory, log *zap.Logger) *RegionScanner {
	if log == nil {
		log = logger.For(packageName)
	}
	return &RegionScanner{fetchers: f, logger: log}
}

// Scan returns the rows of every public instance in region.
//
// The route-table listing is drained completely into a Topology before the
// first instance is requested; classifying against a partial topology would
// misclassify instances whose route table had not been seen yet.
//
// Any fetch error, cancellation, or malformed instance aborts the region and
// is returned wrapped in a REGION_SCAN_ERROR. Rows already collected for the
// region are discarded in that case.
func (s *RegionScanner) Scan(ctx context.Context, region string) ([]models.ClassificationRow, error) {
	log := s.logger.With(zap.String("region", region))
	fetcher := s.fetchers(region)

	topo, err := drainTopology(ctx, fetcher)
	if err != nil {
		return nil, regionError(region, "list route tables", err)
	}
	log.Debug("Route topology built",
		zap.String("operation", "topology_build"),
		zap.Int("route_tables", topo.Len()),
	)

	var (
		rows []models.ClassificationRow
		seen int
	)
	for inst, err := range fetcher.Instances(ctx) {
		if err != nil {
			return nil, regionError(region, "list instances", err)
		}
		seen++

		row, err := Classify(inst, topo)
		if err != nil {
			return nil, regionError(region, "classify instance", err)
		}
		if row == nil {
			continue
		}
		row.Region = region
		rows = append(rows, *row)
	}

	log.Debug("Region classified",
		zap.String("operation", "region_classify"),
		zap.Int("instances", seen),
		zap.Int("public", len(rows)),
	)
	return rows, nil
}

// drainTopology consumes the full route-table sequence and builds the
// region's topology from it.
func drainTopology(ctx context.Context, f Fetcher) (*Topology, error) {
	var tables []models.RouteTable
	for rt, err := range f.RouteTables(ctx) {
		if err != nil {
			return nil, err
		}
		tables = append(tables, rt)
	}
	return BuildTopology(tables), nil
}

func regionError(region, step string, err error) error {
	return herrors.New(herrors.ErrRegionScan, fmt.Sprintf("%s in %s", step, region),
		map[string]interface{}{
			"region": region,
			"step":   step,
		}, err)
}
