package test

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hoainhanpro/dafc-refactor/batch"
	"github.com/hoainhanpro/dafc-refactor/file"
	"github.com/hoainhanpro/dafc-refactor/sqlstore"
)

// PlanLine one normalized row of an imported business plan file.
type PlanLine struct {
	PlanID int64
	SKU    string
	Qty    int64
	Amount float64
}

func main() {
	db, err := sql.Open("mysql", "root:root123@tcp(127.0.0.1:3306)/dafc?charset=utf8&parseTime=true")
	if err != nil {
		panic(err)
	}

	//read normalized plan lines from a CSV import file
	source := &file.CSVSource[PlanLine]{
		Store:  &file.LocalFileStore{},
		Name:   "/data/import/plan_lines.csv",
		Header: true,
		Decode: func(row []string) (PlanLine, error) {
			planID, err := strconv.ParseInt(row[0], 10, 64)
			if err != nil {
				return PlanLine{}, err
			}
			qty, err := strconv.ParseInt(row[2], 10, 64)
			if err != nil {
				return PlanLine{}, err
			}
			amount, err := strconv.ParseFloat(row[3], 64)
			if err != nil {
				return PlanLine{}, err
			}
			return PlanLine{PlanID: planID, SKU: row[1], Qty: qty, Amount: amount}, nil
		},
	}
	lines, err := source.ReadAll()
	if err != nil {
		panic(err)
	}

	//chunk-atomic insert target, duplicates skipped by primary key
	store := sqlstore.NewStore(db, sqlstore.Table{
		Name:       "plan_line",
		Columns:    []string{"plan_id", "sku", "qty", "amount"},
		KeyColumns: []string{"plan_id", "sku"},
	}, func(l PlanLine) []interface{} {
		return []interface{}{l.PlanID, l.SKU, l.Qty, l.Amount}
	}, func(l PlanLine) []interface{} {
		return []interface{}{l.PlanID, l.SKU}
	})

	//recompute the plan totals once after all chunks settle
	refresher := sqlstore.NewRefresher(db,
		"update plan p set p.total_qty=(select sum(qty) from plan_line where plan_id=p.id), "+
			"p.total_amount=(select sum(amount) from plan_line where plan_id=p.id), "+
			"p.line_count=(select count(*) from plan_line where plan_id=p.id)")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	result, batchErr := batch.RunImport(ctx, lines, store, refresher, batch.Options[PlanLine]{
		OnProgress: func(p batch.Progress) {
			fmt.Printf("chunk %d/%d (%d%%), eta:%v\n", p.CurrentChunk, p.TotalChunks, p.Percentage, p.EstimatedRemaining)
		},
	})
	if batchErr != nil {
		fmt.Printf("import did not complete: %v\n", batchErr)
		if result == nil {
			return
		}
	}
	fmt.Printf("jobId:%v status:%v succeeded:%d failed:%d duration:%v\n",
		result.JobID, result.Status, result.Succeeded, result.Failed, result.Duration)
	for _, e := range result.Errors {
		fmt.Printf("item %d: %s (retryable:%v)\n", e.Index, e.Message, e.Retryable)
	}
}
