package mode

// Preset tables for the three modes. Values follow the platform defaults:
// safe answers only from curated Q&A, standard adds grounded generation,
// enhanced adds web search with the two-threshold trigger.

func presetFor(m Mode) (PipelineConfig, bool) {
	switch m {
	case ModeSafe:
		return safePreset(), true
	case ModeStandard:
		return standardPreset(), true
	case ModeEnhanced:
		return enhancedPreset(), true
	default:
		return PipelineConfig{}, false
	}
}

func safePreset() PipelineConfig {
	return PipelineConfig{
		Mode:                 ModeSafe,
		Stages:               []Stage{StageFixedQAExact, StageFixedQASimilar},
		ExactThreshold:       0.85,
		SimilarThreshold:     0.65,
		RecommendThreshold:   0.65,
		RecommendCount:       5,
		TopK:                 5,
		MaxTokens:            1500,
		AllowGeneration:      false,
		AllowWebSearch:       false,
		SimilarAnswerEnabled: false, // similar matches recommend, never answer
		EnableLLMPolish:      false,
		FallbackMessage:      "Sorry, no exact answer was found. Here are some related questions:",
	}
}

func standardPreset() PipelineConfig {
	return PipelineConfig{
		Mode:                 ModeStandard,
		Stages:               []Stage{StageFixedQAExact, StageFixedQASimilar, StageVectorKB, StageGeneration},
		ExactThreshold:       0.90,
		SimilarThreshold:     0.70,
		VectorThreshold:      0.75,
		VectorFloor:          0.50,
		RecommendThreshold:   0.65,
		RecommendCount:       3,
		TopK:                 5,
		MaxTokens:            2000,
		AllowGeneration:      true,
		AllowWebSearch:       false,
		SimilarAnswerEnabled: true,
		EnableLLMPolish:      true,
		FallbackMessage:      "Sorry, I could not find a reliable answer in the knowledge base.",
	}
}

func enhancedPreset() PipelineConfig {
	return PipelineConfig{
		Mode:                   ModeEnhanced,
		Stages:                 []Stage{StageFixedQAExact, StageVectorKB, StageWebSearch, StageGeneration},
		ExactThreshold:         0.95,
		SimilarThreshold:       0.70,
		VectorThreshold:        0.70,
		VectorFloor:            0.30,
		WebSearchThreshold:     0.85,
		WebSearchAutoThreshold: 0.50,
		RecommendThreshold:     0.60,
		RecommendCount:         3,
		TopK:                   8,
		MaxTokens:              2500,
		AllowGeneration:        true,
		AllowWebSearch:         true,
		SimilarAnswerEnabled:   true,
		EnableLLMPolish:        true,
		FallbackMessage:        "Sorry, I could not find a reliable answer across the available sources.",
	}
}
