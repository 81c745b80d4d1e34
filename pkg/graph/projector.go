package graph

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// Projector writes the assembled Study/Sample/Experiment/Run lineage into
// the graph database after a successful fetch.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{client: client, logger: logger}
}

// ProjectLineage merges the whole tree, one transaction per study.
func (p *Projector) ProjectLineage(ctx context.Context, studies []*models.Study) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProjectLineage")
	defer span.End()

	for _, study := range studies {
		if err := p.projectStudy(ctx, study); err != nil {
			p.logger.WithContext(ctx).WithError(err).
				Errorf("Failed to project lineage of study %s", study.ID)
			return err
		}
	}
	return nil
}

func (p *Projector) projectStudy(ctx context.Context, study *models.Study) error {
	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (s:Study {id: $id})
			SET s.bioproject_id = $bioproject_id, s.center_name = $center_name
		`, map[string]any{
			"id":            study.ID,
			"bioproject_id": study.BioprojectID,
			"center_name":   study.CenterName,
		}); err != nil {
			return nil, err
		}

		for _, sample := range study.Samples {
			if _, err := tx.Run(ctx, `
				MERGE (sm:Sample {id: $id})
				SET sm.biosample_id = $biosample_id, sm.organism = $organism
				WITH sm
				MATCH (s:Study {id: $study_id})
				MERGE (s)-[:HAS_SAMPLE]->(sm)
			`, map[string]any{
				"id":           sample.ID,
				"biosample_id": sample.BiosampleID,
				"organism":     sample.Organism,
				"study_id":     study.ID,
			}); err != nil {
				return nil, err
			}

			for _, experiment := range sample.Experiments {
				if _, err := tx.Run(ctx, `
					MERGE (e:Experiment {id: $id})
					SET e.platform = $platform, e.instrument = $instrument
					WITH e
					MATCH (sm:Sample {id: $sample_id})
					MERGE (sm)-[:HAS_EXPERIMENT]->(e)
				`, map[string]any{
					"id":         experiment.ID,
					"platform":   experiment.Platform,
					"instrument": experiment.Instrument,
					"sample_id":  sample.ID,
				}); err != nil {
					return nil, err
				}

				for _, run := range experiment.Runs {
					if _, err := tx.Run(ctx, `
						MERGE (r:Run {id: $id})
						SET r.bases = $bases, r.spots = $spots, r.public = $public
						WITH r
						MATCH (e:Experiment {id: $experiment_id})
						MERGE (e)-[:HAS_RUN]->(r)
					`, map[string]any{
						"id":            run.ID,
						"bases":         run.Bases,
						"spots":         run.Spots,
						"public":        run.Public,
						"experiment_id": experiment.ID,
					}); err != nil {
						return nil, err
					}
				}
			}
		}
		return nil, nil
	})
	return err
}
