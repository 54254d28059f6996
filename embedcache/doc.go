// Copyright 2025 Poiesic Systems
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


// Package embedcache fills in missing review embeddings.
//
// The Manager walks every review that has text but no cached embedding,
// embeds the normalized text in batches and persists the vectors one batch
// per transaction. A batch the backend rejects is retried item by item, so
// one bad review cannot block its neighbours. Items that still fail are
// reported and stay unembedded until the next run.
//
// # Usage
//
//	manager, err := embedcache.NewManager(repo, model,
//	    embedcache.WithProgress(os.Stderr),
//	)
//	report, err := manager.Precompute(ctx)
//	fmt.Println(report.Updated, report.Skipped)
//
// Running Precompute twice is safe: the second run finds nothing to do.
package embedcache
