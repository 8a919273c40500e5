package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/EmmanuelUgo/ML-models/dataset"
	"github.com/EmmanuelUgo/ML-models/decomposition"
	"github.com/EmmanuelUgo/ML-models/pkg/errors"
	"github.com/EmmanuelUgo/ML-models/pkg/log"
	"github.com/EmmanuelUgo/ML-models/visualize"
)

// voteScores maps recorded votes onto a numeric scale. Roll calls a country
// did not vote on fill with the neutral value.
var voteScores = map[string]float64{
	"yes":     1,
	"abstain": 0.5,
	"no":      0,
}

const voteNeutral = "0.5"

// Unvotes embeds countries by their UN General Assembly voting record. The
// input CSV needs country, rcid, and vote columns; an optional bloc column
// colors the plots.
func Unvotes(r *Run) error {
	votes, err := r.load("unvotes.csv")
	if err != nil {
		return err
	}
	for _, col := range []string{"country", "rcid", "vote"} {
		if !votes.HasColumn(col) {
			return errors.NewValueError("unvotes", "missing column "+col)
		}
	}

	scored, err := scoreVotes(votes)
	if err != nil {
		return err
	}
	wide, err := scored.PivotWider("country", "rcid", "vote_score", voteNeutral)
	if err != nil {
		return err
	}
	r.Logger().Info("vote matrix built",
		log.SamplesKey, wide.NRow(),
		log.FeaturesKey, wide.NCol()-1,
	)

	countries, err := wide.Strings("country")
	if err != nil {
		return err
	}
	groups, err := countryGroups(votes, countries)
	if err != nil {
		return err
	}

	rollcalls, err := wide.Drop("country")
	if err != nil {
		return err
	}
	X, err := rollcalls.Matrix()
	if err != nil {
		return err
	}

	// PCA first: the leading components separate the major voting blocs.
	pca := decomposition.NewPCA(2)
	pcs, err := pca.FitTransform(X)
	if err != nil {
		return err
	}
	r.Logger().Info("pca fitted",
		log.OperationKey, "pca",
		log.ValueKey, pca.ExplainedVarianceRatio[0]+pca.ExplainedVarianceRatio[1],
	)
	if err := visualize.Scatter(pcs, groups, "UN votes, principal components", r.outPath("unvotes_pca.png")); err != nil {
		return err
	}

	umap := decomposition.NewUMAP(
		decomposition.WithUMAPComponents(2),
		decomposition.WithNNeighbors(15),
		decomposition.WithUMAPRandomState(r.Config().Seed),
	)
	emb, err := umap.FitTransform(X)
	if err != nil {
		return err
	}
	r.Logger().Info("umap fitted", log.OperationKey, "umap")
	if err := visualize.Scatter(emb, groups, "UN votes, UMAP embedding", r.outPath("unvotes_umap.png")); err != nil {
		return err
	}

	return writeEmbeddings(r, countries, pcs, emb)
}

// scoreVotes replaces the vote factor with its numeric score.
func scoreVotes(votes *dataset.Table) (*dataset.Table, error) {
	recs, err := votes.Strings("vote")
	if err != nil {
		return nil, err
	}
	scoreRecs := make([]string, len(recs)+1)
	scoreRecs[0] = "vote_score"
	for i, v := range recs {
		s, ok := voteScores[v]
		if !ok {
			return nil, errors.NewValueError("unvotes", "unknown vote value "+v)
		}
		scoreRecs[i+1] = formatFloat(s)
	}

	records := votes.Records()
	for i := range records {
		records[i] = append(records[i], scoreRecs[i])
	}
	return dataset.FromRecords(records)
}

// countryGroups labels every country with its bloc when the dataset carries
// one, falling back to a single group.
func countryGroups(votes *dataset.Table, countries []string) ([]string, error) {
	groups := make([]string, len(countries))
	if !votes.HasColumn("bloc") {
		for i := range groups {
			groups[i] = "all"
		}
		return groups, nil
	}

	names, err := votes.Strings("country")
	if err != nil {
		return nil, err
	}
	blocs, err := votes.Strings("bloc")
	if err != nil {
		return nil, err
	}
	byCountry := make(map[string]string, len(countries))
	for i, c := range names {
		if _, ok := byCountry[c]; !ok {
			byCountry[c] = blocs[i]
		}
	}
	for i, c := range countries {
		g, ok := byCountry[c]
		if !ok || dataset.IsMissing(g) {
			g = "other"
		}
		groups[i] = g
	}
	return groups, nil
}

// writeEmbeddings persists both embeddings as one tidy CSV.
func writeEmbeddings(r *Run, countries []string, pcs, emb mat.Matrix) error {
	records := [][]string{{"country", "PC1", "PC2", "UMAP1", "UMAP2"}}
	for i, c := range countries {
		records = append(records, []string{
			c,
			formatFloat(pcs.At(i, 0)),
			formatFloat(pcs.At(i, 1)),
			formatFloat(emb.At(i, 0)),
			formatFloat(emb.At(i, 1)),
		})
	}
	t, err := dataset.FromRecords(records)
	if err != nil {
		return err
	}
	return dataset.WriteCSV(t, r.outPath("unvotes_embeddings.csv"))
}
