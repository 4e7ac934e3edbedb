/*
Package runner validates batches of pathways concurrently against one engine.

It bridges the validation pipeline and bulk-facing frontends: a CLI checking
a directory of pathway files, or a service re-checking every saved pathway
after a catalog edit. Results keep job order regardless of scheduling, so
batch output is reproducible run to run.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithWorkers(8),
	)

	results, err := r.Run(ctx, jobs)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results.Summary())
*/
package runner
