package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"pagekit"
	"pagekit/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Param struct {
	PageNumber int    `paging:"page_number"`
	PageSize   int    `paging:"page_size"`
	SortBy     string `paging:"sort_by"`
}

type Response struct {
	ID    string `db:"id"`
	Title string `db:"title"`
}

func main() {

	collector, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}

	client := pagekit.Init("pagekit", pagekit.WithMetrics(collector))
	defer client.Close(context.Background())

	param := Param{
		PageNumber: 2,
		PageSize:   5,
		SortBy:     "id",
	}

	page, err := pagekit.Execute[Response](context.Background(), client.Run("test").
		WithParams(param).
		WithSorting("-id").
		WithSortable("id", "title"))
	if err != nil {
		panic(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page); err != nil {
		panic(err)
	}

	for i, r := range page.All() {
		fmt.Println(i+1, r.ID, r.Title)
	}
}
