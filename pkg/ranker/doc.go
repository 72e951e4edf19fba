// Package ranker ranks resumes against a job description in-process, without the
// HTTP service, Redis or Postgres.
//
//	r, _ := ranker.New()
//	ranking, _ := r.Rank(ctx, "Python Flask developer", []ranker.Document{
//	    ranker.Text("alice", "Built REST APIs with Python and Flask"),
//	    {ID: "bob.pdf", Content: pdfBytes, Format: ranker.FormatPDF},
//	})
//	for _, res := range ranking.Results {
//	    fmt.Printf("%s %.2f%%\n", res.DocumentID, res.Percent)
//	}
//
// The default strategy is TF-IDF, fit per call on the job description and the
// candidate texts. Pass WithEmbedder to rank with dense embeddings instead:
//
//	r, _ := ranker.New(ranker.WithEmbedder(myEmbedder), ranker.WithStrategy(ranker.StrategyEmbedding))
//
// PDF extraction shells out to poppler (pdftotext, pdftoppm) and, for scanned pages,
// tesseract. Documents that cannot be read are ranked last with an annotation instead
// of failing the call.
package ranker
