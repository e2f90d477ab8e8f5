package service

import "neurabuddy/internal/domain"

// fallbackQuestions is served when neither the knowledge base nor the model
// can produce questions. Every entry has a non-empty correct answer.
var fallbackQuestions = []domain.Question{
	{
		Text:              "Which structure in the medial temporal lobe is essential for forming new declarative memories?",
		Type:              domain.QuestionMCQ,
		Options:           []string{"Hippocampus", "Cerebellum", "Putamen", "Pons"},
		CorrectAnswer:     "Hippocampus",
		StructureTested:   "Hippocampus",
		LearningObjective: "Relate the hippocampus to memory consolidation",
		Explanation:       "The hippocampus consolidates new declarative memories; bilateral damage causes anterograde amnesia.",
	},
	{
		Text:              "How many pairs of cranial nerves are there?",
		Type:              domain.QuestionShortAnswer,
		CorrectAnswer:     "12",
		StructureTested:   "Cranial nerves",
		LearningObjective: "Recall the organisation of the cranial nerves",
		Explanation:       "There are twelve pairs of cranial nerves, numbered I to XII from rostral to caudal.",
	},
	{
		Text:              "A 68-year-old presents with right-sided weakness of the face and arm and difficulty producing speech, with preserved comprehension. Which artery is most likely occluded?",
		Type:              domain.QuestionClinicalVignette,
		CorrectAnswer:     "Left middle cerebral artery",
		StructureTested:   "Middle cerebral artery territory",
		LearningObjective: "Localise a cortical stroke from its deficits",
		Explanation:       "Face and arm weakness with expressive aphasia localises to the dominant frontal lobe, supplied by the left middle cerebral artery.",
	},
	{
		Text:              "Which cranial nerve innervates the lateral rectus muscle?",
		Type:              domain.QuestionMCQ,
		Options:           []string{"Oculomotor (CN III)", "Trochlear (CN IV)", "Abducens (CN VI)", "Facial (CN VII)"},
		CorrectAnswer:     "Abducens (CN VI)",
		StructureTested:   "Abducens nerve",
		LearningObjective: "Map extraocular muscles to their cranial nerves",
		Explanation:       "The abducens nerve supplies the lateral rectus, which abducts the eye.",
	},
	{
		Text:              "Which vessels form the Circle of Willis?",
		Type:              domain.QuestionShortAnswer,
		CorrectAnswer:     "Internal carotid and vertebral arteries",
		StructureTested:   "Circle of Willis",
		LearningObjective: "Describe the arterial supply of the brain",
		Explanation:       "The internal carotid and vertebrobasilar systems anastomose at the base of the brain to form the Circle of Willis.",
	},
	{
		Text:              "A patient has loss of pain and temperature sensation on the left face and right body, with hoarseness and ataxia. Where is the lesion?",
		Type:              domain.QuestionClinicalVignette,
		CorrectAnswer:     "Left lateral medulla",
		StructureTested:   "Lateral medulla",
		LearningObjective: "Recognise lateral medullary (Wallenberg) syndrome",
		Explanation:       "Crossed pain and temperature loss with dysphagia and ipsilateral ataxia indicates a lateral medullary infarct, usually from PICA or vertebral artery occlusion.",
	},
}
