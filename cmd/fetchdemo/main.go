// Copyright 2026 The Fetch Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Fetchdemo runs a small canned Program against the httpsource example
// data source and prints the resulting Environment's round log.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/fetchkit/fetch"
	"github.com/fetchkit/fetch/examples/httpsource"
	"github.com/fetchkit/fetch/fetchcache"
	"github.com/fetchkit/fetch/fetchmetrics"
)

var (
	baseURL = pflag.String("base_url", "https://jsonplaceholder.typicode.com", "Base URL to fetch users from")
	ids     = pflag.IntSlice("ids", []int{1, 2, 3}, "User ids to fetch")
	rps     = pflag.Float64("rps", 5, "Max requests per second against base_url")

	metricsEndpoint = pflag.String("metrics_endpoint", "localhost:8099", "Endpoint for serving metrics")
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func main() {
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	defer klog.Flush()

	decode := func(body []byte) (user, error) {
		var u user
		if err := json.Unmarshal(body, &u); err != nil {
			return user{}, err
		}
		return u, nil
	}
	src := httpsource.New("users", http.DefaultClient, func(id string) string {
		return fmt.Sprintf("%s/users/%s", *baseURL, id)
	}, decode, *rps, 0)

	var programs []fetch.Program[user]
	for _, id := range *ids {
		programs = append(programs, fetch.Of(fmt.Sprintf("%d", id), src))
	}
	program := fetch.Sequence(programs)

	metrics := fetchmetrics.NewMetrics(prometheus.DefaultRegisterer)
	cache := fetchmetrics.Instrument(fetchcache.NewMapCache(), metrics)

	// Handle metrics on the DefaultServeMux, same as the migration tool this
	// demo borrows its shape from.
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(*metricsEndpoint, nil); err != nil {
			klog.Errorf("http.ListenAndServe(%s): %v", *metricsEndpoint, err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, users, err := fetch.RunAll(ctx, program, cache)
	if err != nil {
		klog.Exitf("run failed: %v", err)
	}
	metrics.RecordRounds(len(env.Rounds))

	fmt.Printf("fetched %d users in %d round(s)\n", len(users), len(env.Rounds))
	for i, round := range env.Rounds {
		fmt.Printf("round %d: %s\n", i, round.Duration())
	}
	for _, u := range users {
		fmt.Printf("  user %d: %s\n", u.ID, u.Name)
	}
	fmt.Printf("metrics served at http://%s/metrics\n", *metricsEndpoint)
	os.Exit(0)
}
