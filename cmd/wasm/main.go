//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"cortex/internal/adapter/analyzer"
	"cortex/internal/adapter/chunker"
	"cortex/internal/adapter/extract"
	"cortex/internal/adapter/fs"
	"cortex/internal/adapter/memstore"
	"cortex/internal/adapter/retriever"
	"cortex/internal/domain"
	"cortex/internal/usecase"
)

var (
	store    *memstore.MemoryStore
	ingest   *usecase.IngestUseCase
	retrieve *usecase.RetrieveUseCase
	chat     *usecase.ChatUseCase
	studio   *usecase.StudioUseCase
)

func init() {
	retrieve = usecase.NewRetrieveUseCase(
		retriever.NewTFIDFRetriever(chunker.NewWindowChunker(), analyzer.NewTokenizer()), 0)
	chat = usecase.NewChatUseCase(retrieve, nil, usecase.ChatOptions{})
	studio = usecase.NewStudioUseCase(retrieve, nil, usecase.StudioOptions{})
	reset()
}

func reset() {
	store = memstore.NewMemoryStore()
	ingest = usecase.NewIngestUseCase(store, fs.NewWalker(nil, nil, 0), extract.NewRegistry())
}

func main() {
	c := make(chan struct{})

	js.Global().Set("cortexAdd", js.FuncOf(addSource))
	js.Global().Set("cortexSearch", js.FuncOf(searchSources))
	js.Global().Set("cortexAsk", js.FuncOf(ask))
	js.Global().Set("cortexStudio", js.FuncOf(generateArtifact))
	js.Global().Set("cortexClear", js.FuncOf(clearLibrary))
	js.Global().Set("cortexStats", js.FuncOf(getStats))

	<-c
}

func addSource(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeError("usage: cortexAdd(title, text)")
	}

	doc, err := ingest.AddText(args[0].String(), args[1].String())
	if err != nil {
		return makeError("adding source failed: " + err.Error())
	}

	return makeResult(map[string]any{
		"success":  true,
		"id":       doc.ID,
		"eligible": retrieve.Eligible(doc),
	})
}

func searchSources(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("usage: cortexSearch(query, [maxHits])")
	}

	query := args[0].String()
	maxHits := 6
	if len(args) > 1 {
		maxHits = args[1].Int()
	}

	docs, err := store.List()
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]any{
		"query":   query,
		"results": retrieve.Search(query, docs, maxHits),
	})
}

func ask(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("usage: cortexAsk(question)")
	}

	docs, err := store.List()
	if err != nil {
		return makeError(err.Error())
	}
	result, err := chat.Chat(context.Background(), args[0].String(), docs)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(result)
}

func generateArtifact(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeError("usage: cortexStudio(type, [instructions])")
	}

	at, err := usecase.ParseArtifactType(args[0].String())
	if err != nil {
		return makeError(err.Error())
	}
	instructions := ""
	if len(args) > 1 {
		instructions = args[1].String()
	}

	docs, err := store.List()
	if err != nil {
		return makeError(err.Error())
	}
	artifact, err := studio.Generate(context.Background(), at, instructions, docs)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(artifact)
}

func clearLibrary(this js.Value, args []js.Value) any {
	reset()
	return makeResult(map[string]any{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) any {
	docs, _ := store.List()

	titles := make([]string, len(docs))
	eligible := 0
	for i, doc := range docs {
		titles[i] = doc.DisplayTitle()
		if retrieve.Eligible(doc) {
			eligible++
		}
	}

	return makeResult(map[string]any{
		"totalSources":    len(docs),
		"eligibleSources": eligible,
		"titles":          titles,
		"artifactTypes":   domain.ArtifactTypes(),
	})
}

func makeError(msg string) any {
	result, _ := json.Marshal(map[string]any{
		"error": msg,
	})
	return string(result)
}

func makeResult(data any) any {
	result, _ := json.Marshal(data)
	return string(result)
}
