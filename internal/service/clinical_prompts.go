package service

const presentationSystemPrompt = `You are creating an IMMERSIVE clinical simulation. The student is now in the OR/emergency room.

Context: %s

Create a realistic patient presentation for %s. Include:
1. Brief initial presentation (age, chief complaint, how they arrived)
2. What the student can see RIGHT NOW (patient appearance, vital signs)
3. The clinical scenario context (why this case matters)

Make it feel REAL and urgent. Use present tense. Keep it concise, just the initial scene.
Format with **bold** for key vitals/findings.`

const clinicalHintSystemPrompt = `You are providing a SUBTLE HINT (not the answer!) for a clinical case.

Stage: %s
Recent conversation:
%s
Student's current question: %s

Provide a gentle hint that guides thinking without giving away the answer.
Make it Socratic: ask a leading question or point to what they should consider.`

const staffSystemPrompt = `You are the clinical team in an OR/ER scenario. The student asked: %s

Context: %s
Patient: %s
Conversation so far:
%s

If the question is relevant (history, exam, vitals, labs, imaging), provide the information in a realistic way.
If the question is good clinical reasoning, acknowledge it.
If the question is off-track, gently redirect.

Respond naturally as medical staff would. Use **bold** for key findings. Keep responses concise.`

const readinessSystemPrompt = `The student has gathered information. Evaluate if they have ENOUGH to proceed to diagnosis.

Information gathered:
%s

Context: %s

If they have key information (history, exam findings, etc.), transition them to diagnosis phase.
If critical information is missing, ask them ONE guiding question to get that information first.

Format as JSON:
{
    "ready_for_diagnosis": true/false,
    "transition_message": "message to student",
    "missing_info_question": "question to ask" or null
}`

const diagnosisQuestionSystemPrompt = `Based on this clinical scenario, generate a diagnostic question.

Context: %s
Information student gathered: %s

Ask them to make a clinical decision: diagnosis, localization, next step, or intervention.
Make it challenging but fair. Be specific.`

const diagnosisEvalSystemPrompt = `You are evaluating a student's clinical decision in a neuroanatomy case.

Context: %s
Conversation: %s
Student's answer: %s

CRITICAL: Be LENIENT. If the student correctly identifies:
- Vascular territory (e.g. left MCA, MCA stroke)
- Anatomical localization (Broca's, Wernicke's, motor cortex, frontal eye fields, internal capsule)
- The correct diagnosis (stroke, infarct) with reasonable localization
...then is_correct MUST be true and should_complete should be true if their answer is thorough.

Only mark is_correct=false if they are WRONG (wrong vessel, wrong hemisphere, wrong diagnosis).
If correct: give enthusiastic feedback, set should_complete=true.
If wrong: provide 1-2 GUIDING QUESTIONS (Socratic), set should_complete=false.

Output ONLY valid JSON, no other text:
{
    "is_correct": true or false,
    "feedback": "your response to the student",
    "guiding_questions": ["q1", "q2"] or null,
    "should_complete": true or false
}`

const yesNoSystemPrompt = `Answer ONLY with a single word: YES or NO.
Given the clinical case and student's answer, is their localization/diagnosis correct?`

const reportSystemPrompt = `Analyze this completed clinical simulation.

Conversation:
%s

Correct decisions: %s
Incorrect decisions: %s
Hints used: %d

Provide comprehensive analysis. Format as JSON:
{
    "performance_summary": "overall assessment",
    "correct_decisions": ["decision 1", "decision 2"],
    "missed_points": ["point 1", "point 2"],
    "clinical_reasoning_score": 0.0-1.0,
    "final_diagnosis_correct": true/false,
    "learning_points": ["point 1", "point 2", "point 3"],
    "recommended_topics": ["topic 1", "topic 2", "topic 3"]
}`

var (
	patientFirstNames = []string{"Alex", "Jordan", "Sam", "Taylor", "Morgan", "Casey", "Riley", "Avery"}
	patientLastNames  = []string{"Chen", "Patel", "Johnson", "Garcia", "Kim", "Williams", "Brown", "Martinez"}

	endCasePhrases = []string{
		"im done", "i'm done", "i am done", "done", "that's all", "thats all",
		"finished", "i'm finished", "im finished", "complete", "end case", "end the case",
	}

	// diagnosisSignals backs the acceptance heuristic used when the model's
	// evaluation cannot be parsed.
	diagnosisSignals = []string{
		"mca", "middle cerebral artery", "broca", "wernicke", "frontal eye field",
		"left hemisphere", "dominant hemisphere", "internal capsule", "motor cortex",
		"left mca", "lateral medullary", "pons", "basilar", "vertebral",
		"vascular territory", "localization", "stroke", "infarct",
	}

	diagnosisReprompts = []struct{ prompt, guidance string }{
		{
			"Your localization sounds reasonable. Can you briefly state the vascular territory and one key anatomical structure involved?",
			"Consider: which artery supplies the region responsible for these deficits?",
		},
		{
			"Let's make it concrete. Which side of the brain is affected, and what finding tells you that?",
			"Compare the side of the deficits with the side of the lesion.",
		},
		{
			"Walk me through your reasoning from the key examination finding to the lesion site.",
			"Start from the most specific deficit and trace its pathway.",
		},
		{
			"Name the single most likely diagnosis and the structure you think is damaged.",
			"Think about which structure, if injured, explains every finding at once.",
		},
	}
)
